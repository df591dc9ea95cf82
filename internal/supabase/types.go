package supabase

import (
	"errors"
	"strings"
	"time"
)

// Metadata is the free-form user_metadata object.  Known keys have typed
// accessors; anything else stays reachable through the map.
type Metadata map[string]any

func (m Metadata) str(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func (m Metadata) FullName() string  { return m.str("full_name") }
func (m Metadata) Name() string      { return m.str("name") }
func (m Metadata) AvatarURL() string { return m.str("avatar_url") }
func (m Metadata) NavalName() string { return m.str("naval_name") }

// User is the identity record owned by the auth service.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	ConfirmedAt      *time.Time     `json:"confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Role             string         `json:"role,omitempty"`
	UserMetadata     Metadata       `json:"user_metadata"`
	AppMetadata      map[string]any `json:"app_metadata"`
}

// ErrInvalidUser marks an identity payload that failed boundary checks.
var ErrInvalidUser = errors.New("supabase: identity payload missing id")

// Validate checks the invariants the rest of the app relies on.
func (u *User) Validate() error {
	if u == nil || strings.TrimSpace(u.ID) == "" {
		return ErrInvalidUser
	}
	return nil
}

// Confirmed reports whether the email address has been verified.
func (u *User) Confirmed() bool {
	return u != nil && (u.EmailConfirmedAt != nil || u.ConfirmedAt != nil)
}

// DisplayName is full_name metadata, else the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if n := u.UserMetadata.FullName(); n != "" {
		return n
	}
	return u.Email
}

// Session is the token bundle returned by sign-in and refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// UserAttributes is the PUT /user payload.  Only Data is used by the app.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// SignUpResult carries the created identity and, when the project
// auto-confirms emails, a live session.
type SignUpResult struct {
	User    *User
	Session *Session
}
