// internal/diagnostics/report.go
//
// Report model shared by every diagnostic run.
//
// Context
// -------
// Each run is a short list of Steps.  A Step carries a Status plus free
// detail lines (row counts, column keys, the user id that signed in).
// Issues and Recommendations accumulate across steps and make up the
// final section the CLI prints.
//
// Notes
// -----
// • Messages are Portuguese because the operators are.
// • A report never returns an error; failures are data.

package diagnostics

// Status is the outcome of one step.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
	Info
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "fail"
	default:
		return "info"
	}
}

// Step is one numbered check.
type Step struct {
	Name    string
	Status  Status
	Summary string
	Details []string
}

// Report is the outcome of a run.
type Report struct {
	Title           string
	Steps           []Step
	Issues          []string
	Recommendations []string
	NextSteps       []string
}

// OK reports whether no step failed and no issue was raised.
func (r *Report) OK() bool {
	if len(r.Issues) > 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.Status == Fail {
			return false
		}
	}
	return true
}

func (r *Report) add(s Step) *Step {
	r.Steps = append(r.Steps, s)
	return &r.Steps[len(r.Steps)-1]
}

func (r *Report) issue(msg string) { r.Issues = append(r.Issues, msg) }

func (r *Report) recommend(msg string) {
	for _, m := range r.Recommendations {
		if m == msg {
			return
		}
	}
	r.Recommendations = append(r.Recommendations, msg)
}
