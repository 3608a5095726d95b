package services

import "github.com/dmitrijs2005/dataportal/internal/common"

// ValidateLogin rejects a login form with a missing field.
func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return common.ErrEmptyFields
	}
	return nil
}

// ValidateRegistration checks a registration form: every field present,
// matching confirmation, minimum password length.
func ValidateRegistration(email, password, confirm string) error {
	if email == "" || password == "" || confirm == "" {
		return common.ErrEmptyFields
	}
	if password != confirm {
		return common.ErrPasswordMismatch
	}
	if len(password) < common.MinPasswordLength {
		return common.ErrPasswordTooShort
	}
	return nil
}
