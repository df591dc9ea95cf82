// internal/form/submit.go
//
// Forms subsystem: consolidated Submit helper.
//
// Most handlers want one call that parses the POST body, validates input,
// executes configured actions, and returns the clean map or a validation
// error.  HandleSubmit provides that so component code stays terse.

package form

import (
	"errors"
	"net/http"
)

// HandleSubmit parses r, validates against formID, executes default
// actions, and returns the sanitized data.  On validation failure it
// returns an error for which IsValidationError is true.
func HandleSubmit(formID string, r *http.Request) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	clean, errs := ValidateForm(formID, r.PostForm)
	if len(errs) > 0 {
		return nil, validationError{Fields: errs}
	}

	ExecuteActions(formID, clean, ActionCtx{Ctx: r.Context()})
	return clean, nil
}

// IsValidationError reports whether err came from failed ValidateForm.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// FieldErrors extracts the per-field failures from a validation error.
func FieldErrors(err error) []ErrorField {
	var ve validationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// ErrorMap keys field errors by name for the renderer; form-level errors
// land under "".
func ErrorMap(errs []ErrorField) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	m := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, dup := m[e.Name]; !dup {
			m[e.Name] = e.Message
		}
	}
	return m
}

// String reads a sanitized text value.
func String(clean map[string]any, name string) string {
	s, _ := clean[name].(string)
	return s
}

// Bool reads a sanitized checkbox value.
func Bool(clean map[string]any, name string) bool {
	b, _ := clean[name].(bool)
	return b
}

// Strings reads a sanitized multiselect value.
func Strings(clean map[string]any, name string) []string {
	s, _ := clean[name].([]string)
	return s
}
