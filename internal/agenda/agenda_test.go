package agenda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/profile"
)

var ref = time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)

func TestFilterSprint(t *testing.T) {
	got := Filter(SampleEvents(ref), "Sprint")
	require.Len(t, got, 1)
	assert.Equal(t, "Planejamento de Sprint", got[0].Title)
}

func TestFilterFields(t *testing.T) {
	events := SampleEvents(ref)
	cases := map[string][]string{
		"":            {"e1", "e2"},
		"  metas ":    {"e1"},
		"ANA":         {"e1"},
		"carlos":      {"e2"},
		"inexistente": {},
	}
	for q, want := range cases {
		ids := []string{}
		for _, e := range Filter(events, q) {
			ids = append(ids, e.ID)
		}
		assert.Equal(t, want, ids, "query %q", q)
	}
}

func TestDuration(t *testing.T) {
	events := SampleEvents(ref)
	d, ok := events[0].Duration()
	assert.True(t, ok)
	assert.Equal(t, 60, d)

	d, ok = events[1].Duration()
	assert.True(t, ok)
	assert.Equal(t, 90, d)

	_, ok = EventItem{Start: ref}.Duration()
	assert.False(t, ok)

	before := ref.Add(-time.Hour)
	neg := ComputeDurationMinutes(ref, &before)
	require.NotNil(t, neg)
	assert.Equal(t, 0, *neg)

	odd := ref.Add(89*time.Second + 500*time.Millisecond)
	assert.Equal(t, 1, *ComputeDurationMinutes(ref, &odd))
	assert.Nil(t, ComputeDurationMinutes(ref, nil))
}

func TestMonthGrid(t *testing.T) {
	cells := MonthGrid(ref, SampleEvents(ref))
	require.Len(t, cells, GridCells)

	// October 2026 starts on a Thursday, so the grid opens on Sunday 27 Sep.
	assert.Equal(t, 27, cells[0].Day)
	assert.False(t, cells[0].InMonth)
	assert.Equal(t, time.Sunday, cells[0].Date.Weekday())

	var today, tomorrow Cell
	for _, c := range cells {
		if c.InMonth && c.Day == 18 {
			today = c
		}
		if c.InMonth && c.Day == 19 {
			tomorrow = c
		}
	}
	assert.True(t, today.Today)
	require.Len(t, today.Events, 1)
	assert.Equal(t, "e1", today.Events[0].ID)
	require.Len(t, tomorrow.Events, 1)
	assert.Equal(t, "e2", tomorrow.Events[0].ID)

	assert.Len(t, Weeks(cells), 6)
}

func TestMonthGridCapsEvents(t *testing.T) {
	events := []EventItem{{ID: "a", Start: ref}, {ID: "b", Start: ref}, {ID: "c", Start: ref}}
	for _, c := range MonthGrid(ref, events) {
		if c.Today {
			assert.Len(t, c.Events, 2)
		}
	}
}

type fakeLister struct {
	users []profile.Summary
	err   error
}

func (f fakeLister) Users(context.Context) ([]profile.Summary, error) { return f.users, f.err }

func TestParticipants(t *testing.T) {
	ctx := context.Background()

	got, fallback := Participants(ctx, nil)
	assert.True(t, fallback)
	assert.Equal(t, StaticParticipants, got)

	_, fallback = Participants(ctx, fakeLister{err: errors.New("down")})
	assert.True(t, fallback)

	_, fallback = Participants(ctx, fakeLister{})
	assert.True(t, fallback)

	got, fallback = Participants(ctx, fakeLister{users: []profile.Summary{
		{ID: "u1", FullName: profile.Ptr("Joana")},
		{ID: "u2"},
	}})
	assert.False(t, fallback)
	assert.Equal(t, []Participant{{ID: "u1", Name: "Joana"}, {ID: "u2", Name: "u2"}}, got)

	assert.Equal(t, []Participant{got[1]}, Lookup(got, []string{"u2", "nope"}))
}

func TestDraftBuild(t *testing.T) {
	ev, err := Draft{
		Title:    " Reunião de alinhamento ",
		Start:    "2026-10-20T14:00",
		End:      "2026-10-20T15:30",
		Duration: "",
	}.Build(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "reuniao-de-alinhamento-202610201400", ev.ID)
	d, ok := ev.Duration()
	assert.True(t, ok)
	assert.Equal(t, 90, d)

	_, err = Draft{Start: "2026-10-20T14:00"}.Build(time.UTC)
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = Draft{Title: "x", Start: "amanhã"}.Build(time.UTC)
	assert.Error(t, err)

	_, err = Draft{Title: "x", Start: "2026-10-20T14:00", Duration: "-5"}.Build(time.UTC)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "duration", fe.Field)
}

func TestParseView(t *testing.T) {
	assert.Equal(t, ViewMonth, ParseView("month"))
	assert.Equal(t, ViewList, ParseView(""))
	assert.Equal(t, ViewList, ParseView("week"))
}

func TestDepartmentByName(t *testing.T) {
	assert.Equal(t, "d1", DepartmentByName("operações"))
	assert.Equal(t, "d2", DepartmentByName(" Planejamento "))
	assert.Equal(t, "", DepartmentByName("Marketing"))
}
