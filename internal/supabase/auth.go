package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// authPayload is the union returned by /signup and /token: either a session
// with a nested user, or (signup with confirmation pending) the bare user.
type authPayload struct {
	Session
	ID string `json:"id"`
}

// SignUp registers email/password with metadata stored as user_metadata.
// redirectTo, when set, is where the confirmation link lands.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]any, redirectTo string) (*SignUpResult, error) {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	var raw json.RawMessage
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  q,
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     data,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	var p authPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	res := &SignUpResult{}
	if p.AccessToken != "" {
		s := p.Session
		s.normalize(time.Now())
		res.Session = &s
		res.User = s.User
	} else if p.ID != "" {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, err
		}
		res.User = &u
	} else if p.User != nil {
		res.User = p.User
	}
	if err := res.User.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", map[string]any{"email": email, "password": password})
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return c.token(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, grant string, body map[string]any) (*Session, error) {
	var s Session
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	}, &s)
	if err != nil {
		return nil, err
	}
	if err := s.User.Validate(); err != nil {
		return nil, err
	}
	s.normalize(time.Now())
	return &s, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	}, nil)
	return err
}

// ResetPasswordForEmail asks the backend to send a recovery email.  The
// backend answers success whether or not the account exists.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  q,
		body:   map[string]any{"email": email},
	}, nil)
	return err
}

// GetUser returns the identity behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	}, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser changes the identity behind accessToken.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*User, error) {
	var u User
	if _, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		token:  accessToken,
		body:   attrs,
	}, &u); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Settings returns the public auth settings document.  Diagnostics use it
// to prove the auth service answers.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/settings"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminListUsers lists identities.  It only succeeds with a service-role
// token; with the anon key the backend answers 401 or 403.
func (c *Client) AdminListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	q := url.Values{}
	if page > 0 {
		q.Set("page", itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", itoa(perPage))
	}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/admin/users", query: q}, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}
