// internal/agenda/event.go
//
// Agenda domain types and the in-memory sample data set.
//
// Context
// -------
// The agenda is presentational: events are never persisted, there is no
// conflict detection, and creating an event only logs the submission.
// What lives here is the pure logic the page needs (durations, search,
// and the month grid) so it can be tested without HTTP.
//
// Notes
// -----
// • Times are kept as time.Time; templates format them.

package agenda

import (
	"math"
	"strings"
	"time"
)

// ViewMode selects the list or month rendering.
type ViewMode string

const (
	ViewList  ViewMode = "list"
	ViewMonth ViewMode = "month"
)

// ParseView maps a query value to a ViewMode, defaulting to list.
func ParseView(s string) ViewMode {
	if ViewMode(s) == ViewMonth {
		return ViewMonth
	}
	return ViewList
}

// Department groups participants.
type Department struct {
	ID   string
	Name string
}

// Participant is someone attending an event.
type Participant struct {
	ID           string
	Name         string
	Email        string
	DepartmentID string
}

// EventItem is one agenda entry.  End and DurationMinutes are optional;
// when both are absent the duration is unknown.
type EventItem struct {
	ID              string
	Title           string
	Description     string
	Start           time.Time
	End             *time.Time
	DurationMinutes *int
	Participants    []Participant
	DepartmentID    string
	Location        string
}

// ComputeDurationMinutes returns the whole minutes between start and end,
// rounded to nearest and never negative.  A nil end yields nil.
func ComputeDurationMinutes(start time.Time, end *time.Time) *int {
	if end == nil {
		return nil
	}
	m := int(math.Round(end.Sub(start).Minutes()))
	if m < 0 {
		m = 0
	}
	return &m
}

// Duration prefers the explicit minutes, then the start/end difference.
func (e EventItem) Duration() (int, bool) {
	if e.DurationMinutes != nil {
		return *e.DurationMinutes, true
	}
	if d := ComputeDurationMinutes(e.Start, e.End); d != nil {
		return *d, true
	}
	return 0, false
}

// ParticipantNames joins participant names with ", ".
func (e EventItem) ParticipantNames() string {
	names := make([]string, 0, len(e.Participants))
	for _, p := range e.Participants {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// Matches reports whether q is a case-insensitive substring of the title,
// description, or any participant name.  An empty query matches all.
func (e EventItem) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Description), q) {
		return true
	}
	for _, p := range e.Participants {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	return false
}

// Filter returns the events matching q, preserving order.
func Filter(events []EventItem, q string) []EventItem {
	out := make([]EventItem, 0, len(events))
	for _, e := range events {
		if e.Matches(q) {
			out = append(out, e)
		}
	}
	return out
}

// SampleEvents builds the two demo events relative to now.
func SampleEvents(now time.Time) []EventItem {
	end := now.Add(time.Hour)
	ninety := 90
	return []EventItem{
		{
			ID:          "e1",
			Title:       "Reunião de alinhamento",
			Description: "Alinhar metas do trimestre",
			Start:       now,
			End:         &end,
			Participants: []Participant{
				{ID: "p1", Name: "Ana Silva", Email: "ana@example.com"},
			},
			DepartmentID: "d1",
		},
		{
			ID:              "e2",
			Title:           "Planejamento de Sprint",
			Start:           now.Add(24 * time.Hour),
			DurationMinutes: &ninety,
			Participants:    []Participant{{ID: "p2", Name: "Carlos"}},
			DepartmentID:    "d2",
		},
	}
}

// Departments is the fixed department list the sample events reference.
var Departments = []Department{
	{ID: "d1", Name: "Operações"},
	{ID: "d2", Name: "Planejamento"},
}

// DepartmentByName returns the id of the department called name, or "".
func DepartmentByName(name string) string {
	for _, d := range Departments {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d.ID
		}
	}
	return ""
}
