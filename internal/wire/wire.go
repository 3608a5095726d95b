// Package wire defines the portal's gRPC contract: the service and method
// names, the request and response documents, and the mapping between
// sentinel errors and gRPC status codes.
//
// Messages travel as google.protobuf.Struct values holding the JSON form of
// the documents below, so no generated code is needed on either side.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/dataportal/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "dataportal.v1.Portal"

const (
	MethodPing        = "Ping"
	MethodRegister    = "Register"
	MethodLogin       = "Login"
	MethodCurrentUser = "CurrentUser"
	MethodLogout      = "Logout"
	MethodUserItems   = "UserItems"
	MethodAllItems    = "AllItems"
	MethodRunQuery    = "RunQuery"
	MethodStates      = "States"
	MethodSetState    = "SetState"
	MethodLogs        = "Logs"
	MethodAuditTrail  = "AuditTrail"
	MethodHistory     = "History"
	MethodDashboard   = "Dashboard"
	MethodExportAudit = "ExportAudit"
)

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type Empty struct{}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type QueryRequest struct {
	Query string `json:"query"`
	Email string `json:"email"`
}

type SetStateRequest struct {
	Email   string `json:"email"`
	ItemID  string `json:"item_id"`
	Checked bool   `json:"checked"`
}

type ItemRequest struct {
	ItemID string `json:"item_id"`
}

type HistoryRequest struct {
	Email  string `json:"email"`
	ItemID string `json:"item_id"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// SessionResponse carries a nil Session when nobody is signed in.
type SessionResponse struct {
	Session *models.Session `json:"session"`
}

type ItemsResponse struct {
	Items []models.WorkItem `json:"items"`
}

type StatesResponse struct {
	States map[string]models.CheckboxState `json:"states"`
}

type StateResponse struct {
	State *models.CheckboxState `json:"state"`
}

type LogsResponse struct {
	Logs []models.AuditLogEntry `json:"logs"`
}

type HistoryResponse struct {
	Events []models.AuditEvent `json:"events"`
}

type DashboardResponse struct {
	Dashboard *models.Dashboard `json:"dashboard"`
}

type ExportResponse struct {
	Key string `json:"key"`
}

// Encode converts v to its Struct form through JSON.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// Decode fills v from s. A nil Struct decodes as an empty document.
func Decode(s *structpb.Struct, v any) error {
	m := map[string]any{}
	if s != nil {
		m = s.AsMap()
	}
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
