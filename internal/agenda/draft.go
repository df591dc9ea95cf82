package agenda

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/toescalado/escalado/internal/routing"
)

// LocalInputLayout is the value format of <input type="datetime-local">.
const LocalInputLayout = "2006-01-02T15:04"

// ErrMissingTitle is wrapped by Build for a blank title.
var ErrMissingTitle = errors.New("agenda: title is required")

// FieldError ties a Build failure to the form field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return "agenda: " + e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// Draft is the raw create-event submission.
type Draft struct {
	Title        string
	Description  string
	Start        string // datetime-local
	End          string // datetime-local, optional
	Duration     string // minutes, optional
	Location     string
	DepartmentID string
	Participants []Participant
}

// Build validates d and turns it into an EventItem in loc.  The id is a
// slug of the title plus the start time, so two submissions of the same
// event collapse to the same id in the log.
func (d Draft) Build(loc *time.Location) (EventItem, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return EventItem{}, &FieldError{Field: "title", Err: ErrMissingTitle}
	}
	start, err := time.ParseInLocation(LocalInputLayout, d.Start, loc)
	if err != nil {
		return EventItem{}, &FieldError{Field: "start", Err: err}
	}
	ev := EventItem{
		ID:           routing.MakeSlug(title) + "-" + start.Format("200601021504"),
		Title:        title,
		Description:  strings.TrimSpace(d.Description),
		Start:        start,
		Participants: d.Participants,
		DepartmentID: d.DepartmentID,
		Location:     strings.TrimSpace(d.Location),
	}
	if s := strings.TrimSpace(d.End); s != "" {
		end, err := time.ParseInLocation(LocalInputLayout, s, loc)
		if err != nil {
			return EventItem{}, &FieldError{Field: "end", Err: err}
		}
		ev.End = &end
	}
	if s := strings.TrimSpace(d.Duration); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 0 {
			return EventItem{}, &FieldError{Field: "duration", Err: fmt.Errorf("%q is not a non-negative number", s)}
		}
		ev.DurationMinutes = &m
	}
	return ev, nil
}
