// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Each HTML form is declared in a YAML file that ships inside its
//   component (components/<comp>/forms/*.yaml, embedded with go:embed).
//   This file defines the form’s identifier, title, fields, multi-step
//   structure, and any post-submit actions.  At start-up every component
//   hands its forms FS to RegisterFS, which parses each YAML and stores the
//   resulting FormDef in an in-memory registry.  Renderer, validator,
//   actions, and widgets fetch definitions from this registry by ID.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → StepDef → FieldDef / ActionDef.
//   •  LoadFormDef parses a single YAML file and validates structural rules.
//   •  RegisterFS walks an fs.FS, loads every “*.yaml”, and registers it.
//      A later call with the same ID replaces the earlier definition, so
//      theme override directories are registered after component defaults.
//   •  GetFormDef offers safe, read-only access to a parsed form by ID.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// The form is uniquely identified by ID which should be namespaced by
// component, e.g. “auth/login”.  A form is defined EITHER by a flat Field
// list OR by a Steps list (multi-step wizard).  Actions are executed after
// successful validation.
type FormDef struct {
	ID      string      `yaml:"id"`
	Title   string      `yaml:"title"`
	Submit  string      `yaml:"submit"` // Button label, optional.
	Fields  []FieldDef  `yaml:"fields"`
	Steps   []StepDef   `yaml:"steps"`
	Actions []ActionDef `yaml:"actions"`
}

// FieldDef describes a single input control on the form.  Validation
// metadata lives inline so the server enforces the same rules the browser
// hints at.
type FieldDef struct {
	Name        string   `yaml:"name"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"` // text, email, password, textarea, number, date, datetime-local, select, multiselect, checkbox, radio, hidden
	Placeholder string   `yaml:"placeholder"`
	Help        string   `yaml:"help"`
	Required    bool     `yaml:"required"`
	MinLength   int      `yaml:"minlength"`
	MaxLength   int      `yaml:"maxlength"`
	Pattern     string   `yaml:"pattern"`
	Options     []string `yaml:"options"`  // For select/radio.  multiselect options come from the caller.
	Match       string   `yaml:"match"`    // Must equal the named field.
	ReadOnly    bool     `yaml:"readonly"` // Rendered disabled; never read back.
	ErrorMsg    string   `yaml:"error"`
}

// StepDef groups fields into a wizard step.
type StepDef struct {
	ID     string     `yaml:"id"`
	Title  string     `yaml:"title"`
	Fields []FieldDef `yaml:"fields"`
}

// ActionDef configures an automated action executed after validation.
// Unknown keys are kept in Params for the executor.
type ActionDef struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:",inline"`
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*FormDef)
)

// GetFormDef returns a parsed FormDef by composite ID (“component/form”).
func GetFormDef(id string) (*FormDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fd, ok := registry[id]
	return fd, ok
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef parses one YAML file from fsys.  It NEVER mutates the global
// registry.
func LoadFormDef(fsys fs.FS, path string) (*FormDef, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// ParseFormDef parses and validates raw YAML.  name is used in errors.
func ParseFormDef(raw []byte, name string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", name, err)
	}
	if err := validateFormDef(&fd, name); err != nil {
		return nil, err
	}
	return &fd, nil
}

// RegisterFS loads every “*.yaml” in fsys and registers it.  A missing root
// is not an error.
func RegisterFS(fsys fs.FS) error {
	if fsys == nil {
		return errors.New("RegisterFS: nil filesystem")
	}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".yaml") {
			return nil
		}
		fd, err := LoadFormDef(fsys, path)
		if err != nil {
			return err // fail fast so issues surface loudly.
		}
		register(fd)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// register inserts or overrides the form and its widget.
func register(fd *FormDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[fd.ID] = fd
	injectWidgetRegistration(fd)
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var validTypes = map[string]bool{
	"text": true, "email": true, "password": true, "textarea": true,
	"number": true, "date": true, "datetime-local": true, "select": true,
	"multiselect": true, "checkbox": true, "radio": true, "hidden": true,
}

var validActions = map[string]bool{
	"log": true,
}

// validateFormDef enforces structural rules that cannot be expressed via
// YAML tags alone.
func validateFormDef(fd *FormDef, path string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", path)
	}
	if len(fd.Fields) > 0 && len(fd.Steps) > 0 {
		return fmt.Errorf("form definition %s: cannot have both 'fields' and 'steps'", path)
	}
	if len(fd.Fields) == 0 && len(fd.Steps) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields' or 'steps'", path)
	}

	fieldNames := make(map[string]struct{})
	check := func(f *FieldDef) error {
		if err := validateField(f, path); err != nil {
			return err
		}
		if _, dup := fieldNames[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", path, f.Name)
		}
		fieldNames[f.Name] = struct{}{}
		return nil
	}

	for i := range fd.Fields {
		if err := check(&fd.Fields[i]); err != nil {
			return err
		}
	}
	for si := range fd.Steps {
		s := &fd.Steps[si]
		if s.ID == "" {
			s.ID = fmt.Sprintf("step%d", si+1)
		}
		for fi := range s.Fields {
			if err := check(&s.Fields[fi]); err != nil {
				return err
			}
		}
	}

	for _, f := range flattenFields(fd) {
		if f.Match == "" {
			continue
		}
		if _, ok := fieldNames[f.Match]; !ok {
			return fmt.Errorf("form %s: field '%s' matches unknown field '%s'", path, f.Name, f.Match)
		}
	}

	// Unknown action types are tolerated but reported.
	for _, ac := range fd.Actions {
		if !validActions[ac.Type] {
			zap.S().Warnw("unrecognized form action", "form", fd.ID, "action", ac.Type)
		}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, path string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", path)
	}
	if f.Label == "" && f.Type != "hidden" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", path, f.Name)
	}
	if f.Type == "" {
		return fmt.Errorf("form %s: field '%s' missing 'type'", path, f.Name)
	}
	if !validTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", path, f.Name, f.Type)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", path, f.Name, err)
		}
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' minlength/maxlength cannot be negative", path, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", path, f.Name)
	}
	return nil
}
