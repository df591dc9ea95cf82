// internal/form/validate.go
//
// Forms subsystem: server-side validation and sanitization.
//
// Context
//   The renderer outputs HTML containing a CSRF token and timestamp.  When
//   the browser posts user input, this file verifies the submission: CSRF,
//   timing, required fields, type constraints, regex patterns, option
//   values, equality with another field, and length limits.  It returns a
//   sanitized map that business logic and actions can trust.
//
// Workflow
//   •  ValidateForm retrieves the FormDef, flattens its FieldDefs, and
//      checks CSRF + render timestamp before per-field validation.
//   •  Each field is validated and trimmed by type.  Errors are captured in
//      []ErrorField so templates can highlight exact issues.
//   •  Values are NOT HTML-escaped here; html/template escapes on output.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure.  Name is empty for
// form-level problems (CSRF, timing).
type ErrorField struct {
	Name    string
	Message string
}

// validationError wraps []ErrorField and satisfies the error interface.
type validationError struct{ Fields []ErrorField }

func (ve validationError) Error() string { return "form validation failed" }

// -----------------------------------------------------------------------------
// Timing window
// -----------------------------------------------------------------------------

var (
	timingMu    sync.RWMutex
	minFillTime = 2 * time.Second
	maxFillTime = 30 * time.Minute
)

// SetTiming adjusts the accepted render→submit window.  A zero min
// disables the "too fast" check.
func SetTiming(min, max time.Duration) {
	timingMu.Lock()
	defer timingMu.Unlock()
	minFillTime = min
	if max > 0 {
		maxFillTime = max
	}
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

// ValidateForm validates posted form data for formID.  It returns sanitized
// values and any field errors.  A non-empty error slice means the page must
// be re-rendered.
func ValidateForm(formID string, posted url.Values) (map[string]any, []ErrorField) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, []ErrorField{{Name: "", Message: "Unknown form."}}
	}

	if !verifyCSRF(posted.Get("csrf_token")) {
		return nil, []ErrorField{{"", "Security token invalid.  Please refresh and try again."}}
	}
	if msg := checkTiming(posted.Get("render_ts")); msg != "" {
		return nil, []ErrorField{{"", msg}}
	}

	var errs []ErrorField
	clean := make(map[string]any)
	fields := flattenFields(fd)

	for _, f := range fields {
		if f.ReadOnly {
			continue
		}
		if f.Type == "multiselect" {
			vals := nonBlank(posted[f.Name])
			if f.Required && len(vals) == 0 {
				errs = append(errs, ErrorField{f.Name, requiredMsg(&f)})
				continue
			}
			if len(vals) > 0 {
				clean[f.Name] = vals
			}
			continue
		}

		raw, present := extractValue(posted, &f)
		if f.Required && (!present || strings.TrimSpace(raw) == "") {
			errs = append(errs, ErrorField{f.Name, requiredMsg(&f)})
			continue
		}
		if !present || raw == "" {
			continue
		}

		val, perr := validateAndSanitize(&f, raw)
		if perr != "" {
			errs = append(errs, ErrorField{f.Name, perr})
			continue
		}
		clean[f.Name] = val
	}

	for _, f := range fields {
		if f.Match == "" || hasError(errs, f.Name) {
			continue
		}
		if posted.Get(f.Name) != posted.Get(f.Match) {
			errs = append(errs, ErrorField{f.Name, mismatchMsg(&f)})
		}
	}

	return clean, errs
}

// -----------------------------------------------------------------------------
// Form-level helpers
// -----------------------------------------------------------------------------

func verifyCSRF(token string) bool {
	return token != "" && VerifyToken(token)
}

// checkTiming ensures the form was not submitted suspiciously fast or too
// late.  Returns empty string on success.
func checkTiming(tsRaw string) string {
	if tsRaw == "" {
		return "Timestamp missing.  Please reload the page."
	}
	ts, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return "Bad timestamp.  Please retry."
	}
	timingMu.RLock()
	lo, hi := minFillTime, maxFillTime
	timingMu.RUnlock()

	delta := time.Since(time.UnixMicro(ts))
	switch {
	case lo > 0 && delta < lo:
		return "Form submitted too quickly.  Please enter the fields manually."
	case delta > hi:
		return "Form expired.  Please reload and submit again."
	default:
		return ""
	}
}

// flattenFields returns all FieldDefs regardless of step structure.
func flattenFields(fd *FormDef) []FieldDef {
	if len(fd.Steps) == 0 {
		return fd.Fields
	}
	var out []FieldDef
	for _, s := range fd.Steps {
		out = append(out, s.Fields...)
	}
	return out
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

func extractValue(v url.Values, f *FieldDef) (string, bool) {
	raw, ok := v[f.Name]
	if !ok || len(raw) == 0 {
		return "", false
	}
	return raw[0], true
}

func validateAndSanitize(f *FieldDef, raw string) (any, string) {
	val := strings.TrimSpace(raw)

	switch f.Type {
	case "text", "textarea", "hidden":
		if msg := lengthCheck(f, val); msg != "" {
			return nil, msg
		}
		if f.Pattern != "" && !regexMatch(f.Pattern, val) {
			return nil, patternMsg(f)
		}
		return val, ""

	case "email":
		if msg := lengthCheck(f, val); msg != "" {
			return nil, msg
		}
		if _, err := mail.ParseAddress(val); err != nil {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "password":
		// Passwords are not trimmed.
		if msg := lengthCheck(f, raw); msg != "" {
			return nil, msg
		}
		return raw, ""

	case "number":
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "date":
		if _, err := time.Parse("2006-01-02", val); err != nil {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "datetime-local":
		if _, err := time.Parse("2006-01-02T15:04", val); err != nil {
			return nil, invalidMsg(f)
		}
		return val, ""

	case "checkbox":
		return true, ""

	case "select", "radio":
		if !optionAllowed(f.Options, val) {
			return nil, invalidMsg(f)
		}
		return val, ""

	default:
		return nil, fmt.Sprintf("Unsupported field type %q.", f.Type)
	}
}

// lengthCheck validates minlength / maxlength rules in characters.
func lengthCheck(f *FieldDef, s string) string {
	n := utf8.RuneCountInString(s)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("Must be at least %d characters.", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("Must be less than %d characters.", f.MaxLength)
	}
	return ""
}

func regexMatch(pattern, s string) bool {
	re, _ := regexp.Compile(pattern) // pattern pre-validated at load
	return re.MatchString(s)
}

func optionAllowed(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

func nonBlank(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func hasError(errs []ErrorField, name string) bool {
	for _, e := range errs {
		if e.Name == name {
			return true
		}
	}
	return false
}

func requiredMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "This field is required."
}
func invalidMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Invalid input."
}
func patternMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Input does not match required format."
}
func mismatchMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Values do not match."
}
