// internal/agenda/participants.go
//
// Participant options for the create-event form.  The users directory is
// the preferred source; when it fails or is empty the static list below
// keeps the picker usable.

package agenda

import (
	"context"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/profile"
)

// StaticParticipants is the fallback picker list.
var StaticParticipants = []Participant{
	{ID: "p1", Name: "Ana Silva", Email: "ana@example.com", DepartmentID: "d1"},
	{ID: "p2", Name: "Carlos", DepartmentID: "d2"},
	{ID: "p3", Name: "Beatriz Souza", Email: "beatriz@example.com", DepartmentID: "d1"},
}

// Lister is satisfied by *profile.Directory.
type Lister interface {
	Users(ctx context.Context) ([]profile.Summary, error)
}

// Participants returns picker options from src, or StaticParticipants
// when src is nil, fails, or returns nothing.  The bool reports whether
// the fallback was used.
func Participants(ctx context.Context, src Lister) ([]Participant, bool) {
	if src == nil {
		return StaticParticipants, true
	}
	users, err := src.Users(ctx)
	if err != nil {
		logger.FromContext(ctx).Warnw("participant directory unavailable", "err", err)
		return StaticParticipants, true
	}
	if len(users) == 0 {
		return StaticParticipants, true
	}
	out := make([]Participant, 0, len(users))
	for _, u := range users {
		p := Participant{ID: u.ID, Name: u.Label()}
		if u.Email != nil {
			p.Email = *u.Email
		}
		out = append(out, p)
	}
	return out, false
}

// Lookup resolves selected ids against opts, skipping unknown ids.
func Lookup(opts []Participant, ids []string) []Participant {
	idx := make(map[string]Participant, len(opts))
	for _, p := range opts {
		idx[p.ID] = p
	}
	out := make([]Participant, 0, len(ids))
	for _, id := range ids {
		if p, ok := idx[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
