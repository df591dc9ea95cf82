// internal/profile/record.go
//
// ProfileRecord and its column types.
//
// Context
// -------
// A profile row is keyed by the identity id and carries the app-specific
// attributes the auth service does not: city, role, phone, avatar, and the
// two text[] columns.  Every nullable column is a pointer so "absent" and
// "blank" stay distinguishable on the way in; writes normalise blank values
// to NULL (see Changes.columns).
//
// Notes
// -----
// • StringList maps Postgres text[] through pgtype so the SQL store and the
//   REST store share one Go type.

package profile

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Record is one row of the profiles table.
type Record struct {
	ID          string     `json:"id"           db:"id"`
	FullName    *string    `json:"full_name"    db:"full_name"`
	City        *string    `json:"city"         db:"city"`
	Role        *string    `json:"role"         db:"role"`
	Phone       *string    `json:"phone"        db:"phone"`
	AvatarURL   *string    `json:"avatar_url"   db:"avatar_url"`
	Departments StringList `json:"departments"  db:"departments"`
	OtherEmails StringList `json:"other_emails" db:"other_emails"`
	CreatedAt   *time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"   db:"updated_at"`
}

// Summary is one entry of the user directory.  Email is always nil because
// addresses live in the auth service and are not queryable from profiles.
type Summary struct {
	ID        string  `json:"id"         db:"id"`
	FullName  *string `json:"full_name"  db:"full_name"`
	AvatarURL *string `json:"avatar_url" db:"avatar_url"`
	Email     *string `json:"email"      db:"-"`
}

// Label is the name shown in pickers.
func (s Summary) Label() string {
	if s.FullName != nil && strings.TrimSpace(*s.FullName) != "" {
		return *s.FullName
	}
	return s.ID
}

var (
	// ErrNotFound is returned when no profile row exists for an id.
	ErrNotFound = errors.New("profile: not found")
	// ErrMismatch marks a profile whose id differs from the identity id.
	ErrMismatch = errors.New("profile: id does not match identity")
)

// Validate checks boundary invariants.  identityID may be empty to skip the
// join check.
func (r *Record) Validate(identityID string) error {
	if r == nil || strings.TrimSpace(r.ID) == "" {
		return errors.New("profile: missing id")
	}
	if identityID != "" && r.ID != identityID {
		return fmt.Errorf("%w: %s != %s", ErrMismatch, r.ID, identityID)
	}
	return nil
}

// NeedsOnboarding is true when the record is absent or lacks city or role.
func NeedsOnboarding(r *Record) bool {
	return r == nil || blank(r.City) || blank(r.Role)
}

// Str dereferences an optional column for display.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to s; used when building Changes.
func Ptr(s string) *string { return &s }

func blank(p *string) bool { return p == nil || strings.TrimSpace(*p) == "" }

/*──────────────────────────── StringList ───────────────────────────────────*/

// StringList is a text[] column.  It encodes as a JSON array for the REST
// store and as a Postgres array literal for the SQL store.
type StringList []string

// SplitList turns "a, b,,c" into [a b c].  An all-blank input yields nil.
func SplitList(s string) StringList {
	var out StringList
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins the list for form prefill.
func (l StringList) String() string { return strings.Join(l, ", ") }

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case []string:
		*l = append(StringList(nil), v...)
		return nil
	default:
		return fmt.Errorf("profile: cannot scan %T into StringList", src)
	}
	var out []string
	if err := pgtype.NewMap().Scan(pgtype.TextArrayOID, pgtype.TextFormatCode, raw, &out); err != nil {
		return fmt.Errorf("profile: scan text[]: %w", err)
	}
	*l = out
	return nil
}

// Value implements driver.Valuer.  A nil list is NULL.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(l), nil)
	if err != nil {
		return nil, fmt.Errorf("profile: encode text[]: %w", err)
	}
	return string(buf), nil
}
