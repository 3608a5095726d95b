// Package common contains shared constants and sentinel errors used across
// the data portal components.
package common

// SessionTokenHeaderName is the gRPC metadata key used to carry the session
// token on outbound requests.
const SessionTokenHeaderName = "session_token"

// Demo accounts seeded into an empty account directory.
var DemoAccountEmails = []string{
	"john@company.com",
	"sarah@company.com",
	"mike@company.com",
}

// DemoAccountPassword is shared by all seeded demo accounts.
const DemoAccountPassword = "demo123"

// MinPasswordLength is the shortest password the client accepts at registration.
const MinPasswordLength = 6
