package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Well-known codes the diagnostics compare against.
const (
	CodeUndefinedTable        = "42P01"
	CodeInsufficientPrivilege = "42501"
)

// Messages the auth service returns verbatim.
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgEmailNotConfirmed  = "Email not confirmed"
)

// APIError is the single structured error produced by the client.  Auth
// errors fill Message from msg / error_description; REST errors carry the
// Postgres SQLSTATE in Code.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase %d: %s", e.Status, e.Message)
}

// AsAPIError unwraps err into *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Code == code
}

// Message returns the user-facing backend message for err, or "" when err
// did not come from the backend.
func Message(err error) string {
	if ae, ok := AsAPIError(err); ok {
		return ae.Message
	}
	return ""
}

// errorBody is the union of the auth and REST error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
}

func decodeError(status int, raw []byte) error {
	ae := &APIError{Status: status}

	var b errorBody
	if err := json.Unmarshal(raw, &b); err != nil {
		ae.Message = strings.TrimSpace(string(raw))
		if ae.Message == "" {
			ae.Message = http.StatusText(status)
		}
		return ae
	}

	// REST sends "42P01"; auth sends a numeric HTTP code plus error_code.
	if len(b.Code) > 0 {
		var s string
		if json.Unmarshal(b.Code, &s) == nil {
			ae.Code = s
		} else if _, err := strconv.Atoi(string(b.Code)); err == nil && b.ErrorCode != "" {
			ae.Code = b.ErrorCode
		}
	}
	if ae.Code == "" {
		ae.Code = b.ErrorCode
	}

	for _, m := range []string{b.Message, b.Msg, b.ErrorDescription, b.Error} {
		if m != "" {
			ae.Message = m
			break
		}
	}
	if ae.Message == "" {
		ae.Message = http.StatusText(status)
	}
	ae.Details = b.Details
	ae.Hint = b.Hint
	return ae
}
