// internal/acl/roles.go
//
// Role flags derived from the profile "role" column.
//
// Context
// -------
// The column is free text.  It may hold one name ("pilot") or several
// separated by commas or spaces ("admin, tripulante").  Three names are
// canonical and drive UI flags; anything else is kept verbatim as a crew
// sub-role and shown as an extra badge.
//
// Notes
// -----
// • Matching is case-insensitive; "crew" is accepted as an alias for
//   "tripulante".

package acl

import (
	"strings"
)

// Canonical role names.
const (
	RoleAdmin      = "admin"
	RolePilot      = "pilot"
	RoleTripulante = "tripulante"
)

// RoleSet is the parsed form of a role column.
type RoleSet struct {
	Admin bool
	Pilot bool
	Crew  bool
	// Extra holds non-canonical names in the order they appeared.
	Extra []string
}

// Parse reads a role column.  Duplicates are ignored.
func Parse(role string) RoleSet {
	var rs RoleSet
	seen := map[string]bool{}
	fields := strings.FieldsFunc(role, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		switch name {
		case RoleAdmin:
			rs.Admin = true
		case RolePilot, "piloto":
			rs.Pilot = true
		case RoleTripulante, "crew":
			rs.Crew = true
		default:
			rs.Extra = append(rs.Extra, strings.TrimSpace(f))
		}
	}
	return rs
}

// Names returns canonical names first, then extras.
func (rs RoleSet) Names() []string {
	var out []string
	if rs.Admin {
		out = append(out, RoleAdmin)
	}
	if rs.Pilot {
		out = append(out, RolePilot)
	}
	if rs.Crew {
		out = append(out, RoleTripulante)
	}
	return append(out, rs.Extra...)
}

// Badge is one label in the nav header.
type Badge struct {
	Label string
	Kind  string // admin, pilot, crew, extra
}

// Badges returns the header badges for rs.
func (rs RoleSet) Badges() []Badge {
	var out []Badge
	if rs.Admin {
		out = append(out, Badge{Label: "ADMIN", Kind: "admin"})
	}
	if rs.Pilot {
		out = append(out, Badge{Label: "PILOTO", Kind: "pilot"})
	}
	if rs.Crew {
		out = append(out, Badge{Label: "TRIPULANTE", Kind: "crew"})
	}
	for _, e := range rs.Extra {
		out = append(out, Badge{Label: strings.ToUpper(e), Kind: "extra"})
	}
	return out
}
