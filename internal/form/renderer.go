// internal/form/renderer.go
//
// Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef this file converts the definition into safe,
//   accessible HTML markup.  The renderer supports both single-step and
//   multi-step forms, applies HTML5 validation attributes, injects a CSRF
//   token and render-timestamp hidden inputs, and honours optional pre-fill
//   data and per-field error messages from a failed submission.
//
// Workflow
//   •  RenderForm looks up the FormDef by ID, selects the requested step (if
//      multi-step), and writes each field via writeField.
//   •  Required, minlength, maxlength, pattern, and placeholder attributes
//      are attached where relevant.  Select/radio options come from YAML;
//      multiselect choices come from RenderOptions.Choices.
//   •  The caller receives template.HTML so the surrounding template does
//      not double-escape the markup.  The <form> element and the submit
//      button belong to the page template.
//
// Style
//   Each input gets id="fld-{name}" and is wrapped in
//   <div class="form-field"> for consistent styling.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
	"time"
)

// Choice is one option of a multiselect.
type Choice struct {
	Value string
	Label string
}

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Prefill provides initial field values keyed by field name.
	Prefill map[string]string
	// Selected lists pre-selected values of multiselect fields.
	Selected map[string][]string
	// Choices supplies multiselect options keyed by field name.
	Choices map[string][]Choice
	// Errors maps field name to message; "" is a form-level message.
	Errors map[string]string
	// StepID indicates which step of a multi-step form to render.
	StepID string
}

// RenderForm returns the HTML markup for the specified form ID.
func RenderForm(formID string, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}

	fields, stepIndex, err := selectFields(fd, opts.StepID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="escalado-form" data-form="` + html.EscapeString(fd.ID) + `">` + "\n")

	if msg := opts.Errors[""]; msg != "" {
		buf.WriteString(`<div class="alert alert-error" role="alert">` + html.EscapeString(msg) + `</div>` + "\n")
	}

	for _, f := range fields {
		if err := writeField(&buf, &f, opts); err != nil {
			return "", err
		}
	}

	buf.WriteString(fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s">`+"\n", csrfGenerateToken()))
	buf.WriteString(fmt.Sprintf(`<input type="hidden" name="render_ts" value="%d">`+"\n", time.Now().UnixMicro()))
	if stepIndex >= 0 {
		buf.WriteString(fmt.Sprintf(`<input type="hidden" name="current_step" value="%s">`+"\n", html.EscapeString(fd.Steps[stepIndex].ID)))
	}

	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

// selectFields returns the FieldDefs to render for the requested step.
func selectFields(fd *FormDef, stepID string) ([]FieldDef, int, error) {
	if len(fd.Steps) == 0 {
		return fd.Fields, -1, nil
	}
	if stepID == "" {
		return fd.Steps[0].Fields, 0, nil
	}
	for i, s := range fd.Steps {
		if s.ID == stepID {
			return s.Fields, i, nil
		}
	}
	return nil, -1, fmt.Errorf("RenderForm: step %q not found in form %q", stepID, fd.ID)
}

// writeField emits HTML for one field.
func writeField(buf *bytes.Buffer, f *FieldDef, opts RenderOptions) error {
	val := opts.Prefill[f.Name]
	name := html.EscapeString(f.Name)
	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	if f.Type == "hidden" {
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="hidden" value="` + html.EscapeString(val) + `">` + "\n")
		return nil
	}

	errMsg := opts.Errors[f.Name]
	class := "form-field"
	if errMsg != "" {
		class += " has-error"
	}
	buf.WriteString(`<div class="` + class + `">` + "\n")

	if f.Type != "checkbox" {
		buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")
	}

	switch f.Type {
	case "text", "email", "password", "number", "date", "datetime-local":
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `"`)
		writeCommon(buf, f)
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		if val != "" && f.Type != "password" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")

	case "textarea":
		buf.WriteString(`<textarea ` + idAttr + ` ` + nameAttr)
		writeCommon(buf, f)
		buf.WriteString(`>` + html.EscapeString(val) + `</textarea>` + "\n")

	case "select":
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		for _, opt := range f.Options {
			buf.WriteString(option(opt, opt, val == opt))
		}
		buf.WriteString(`</select>` + "\n")

	case "multiselect":
		selected := map[string]bool{}
		for _, s := range opts.Selected[f.Name] {
			selected[s] = true
		}
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr + ` multiple`)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		for _, c := range opts.Choices[f.Name] {
			buf.WriteString(option(c.Value, c.Label, selected[c.Value]))
		}
		buf.WriteString(`</select>` + "\n")

	case "checkbox":
		checked := ""
		if val != "" && strings.ToLower(val) != "false" {
			checked = ` checked`
		}
		buf.WriteString(`<label class="checkbox" for="fld-` + name + `">`)
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="checkbox"` + checked)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`> ` + html.EscapeString(f.Label) + `</label>` + "\n")

	case "radio":
		for i, opt := range f.Options {
			radioID := fmt.Sprintf("fld-%s-%d", name, i)
			checked := ""
			if val == opt {
				checked = ` checked`
			}
			buf.WriteString(`<div class="radio-option">` + "\n")
			buf.WriteString(`<input id="` + radioID + `" ` + nameAttr + ` type="radio" value="` + html.EscapeString(opt) + `"` + checked)
			if f.Required {
				buf.WriteString(` required`)
			}
			buf.WriteString(`>` + "\n")
			buf.WriteString(`<label for="` + radioID + `">` + html.EscapeString(opt) + `</label>` + "\n")
			buf.WriteString(`</div>` + "\n")
		}

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	if f.Help != "" {
		buf.WriteString(`<small class="help">` + html.EscapeString(f.Help) + `</small>` + "\n")
	}
	buf.WriteString(`<span class="error" aria-live="polite">` + html.EscapeString(errMsg) + `</span>` + "\n")
	buf.WriteString(`</div>` + "\n")
	return nil
}

// writeCommon emits the attributes shared by text-like controls.
func writeCommon(buf *bytes.Buffer, f *FieldDef) {
	if f.Placeholder != "" {
		buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
	}
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.ReadOnly {
		buf.WriteString(` disabled`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
}

func option(value, label string, selected bool) string {
	sel := ""
	if selected {
		sel = ` selected`
	}
	return `<option value="` + html.EscapeString(value) + `"` + sel + `>` + html.EscapeString(label) + `</option>` + "\n"
}

// csrfGenerateToken falls back to a value that will never verify, so a
// broken RNG surfaces as a rejected submit rather than a panic.
func csrfGenerateToken() string {
	token, err := GenerateToken()
	if err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return token
}
