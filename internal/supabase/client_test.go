package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/supabase/supabasetest"
)

func newTestClient(t *testing.T) (*Client, *supabasetest.Server) {
	t.Helper()
	srv := supabasetest.New()
	t.Cleanup(srv.Close)
	c, err := New(Options{URL: srv.URL, AnonKey: supabasetest.AnonKey, Timeout: 2 * time.Second})
	require.NoError(t, err)
	return c, srv
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Options{URL: "abc.supabase.co"})
	require.Error(t, err)
}

func TestNotConfigured(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	_, err = c.GetUser(context.Background(), "tok")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	c, _ := newTestClient(t)

	res, err := c.SignUp(context.Background(), "a@b.com", "secret1", map[string]any{"full_name": "Ana"}, "")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Nil(t, res.Session)
	assert.NotEmpty(t, res.User.ID)
	assert.False(t, res.User.Confirmed())
	assert.Equal(t, "Ana", res.User.UserMetadata.FullName())
}

func TestSignUp_AutoConfirmReturnsSession(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AutoConfirm = true

	res, err := c.SignUp(context.Background(), "a@b.com", "secret1", nil, "")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, res.Session.User.ID, res.User.ID)
	assert.True(t, res.User.Confirmed())
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddUser("a@b.com", "secret1", nil)

	_, err := c.SignInWithPassword(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidCredentials, Message(err))
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "invalid_credentials", ae.Code)
}

func TestSignIn_RefreshAndUser(t *testing.T) {
	c, srv := newTestClient(t)
	id := srv.AddUser("a@b.com", "secret1", map[string]any{"full_name": "Ana"})
	ctx := context.Background()

	s, err := c.SignInWithPassword(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, s.User.ID)
	assert.False(t, s.Expired(time.Now()))

	u, err := c.GetUser(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName())

	u, err = c.UpdateUser(ctx, s.AccessToken, UserAttributes{Data: map[string]any{"full_name": "Ana Silva"}})
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", u.UserMetadata.FullName())

	s2, err := c.RefreshSession(ctx, s.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, s.RefreshToken, s2.RefreshToken)

	_, err = c.RefreshSession(ctx, s.RefreshToken)
	require.Error(t, err, "refresh tokens are single-use")

	require.NoError(t, c.SignOut(ctx, s2.AccessToken))
}

func TestREST_SelectUpdateUpsertCount(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetRows("profiles",
		map[string]any{"id": "u2", "full_name": "Bruno"},
		map[string]any{"id": "u1", "full_name": "Ana"},
	)
	ctx := context.Background()

	var rows []map[string]any
	require.NoError(t, c.Select(ctx, "profiles", Query{Select: "id,full_name", Order: "full_name.asc"}, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0]["full_name"])

	var updated []map[string]any
	require.NoError(t, c.Update(ctx, "profiles", Query{Filters: []Filter{Eq("id", "u1")}},
		map[string]any{"city": "Recife"}, &updated))
	require.Len(t, updated, 1)
	assert.Equal(t, "Recife", updated[0]["city"])

	require.NoError(t, c.Upsert(ctx, "profiles", map[string]any{"id": "u1", "role": "pilot"}, nil))
	require.NoError(t, c.Upsert(ctx, "profiles", map[string]any{"id": "u3"}, nil))

	n, err := c.Count(ctx, "profiles", Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	err = c.Insert(ctx, "profiles", map[string]any{"id": "u3"}, nil)
	assert.True(t, HasCode(err, "23505"))
}

func TestREST_MissingAndDeniedTables(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Denied["profiles"] = true
	ctx := context.Background()

	var rows []map[string]any
	err := c.Select(ctx, "agenda", Query{}, &rows)
	assert.True(t, HasCode(err, CodeUndefinedTable))

	err = c.Select(ctx, "profiles", Query{}, &rows)
	assert.True(t, HasCode(err, CodeInsufficientPrivilege))
}

func TestREST_UsesContextToken(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := New(Options{URL: srv.URL, AnonKey: "anon"})
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, c.Select(context.Background(), "profiles", Query{}, &rows))
	assert.Equal(t, "Bearer anon", gotAuth)

	ctx := WithAccessToken(context.Background(), "user-token")
	require.NoError(t, c.Select(ctx, "profiles", Query{}, &rows))
	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, "anon", gotKey)
}

func TestDecodeError_Shapes(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"legacy auth", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "", "Invalid login credentials"},
		{"auth v2", 400, `{"code":400,"error_code":"email_not_confirmed","msg":"Email not confirmed"}`, "email_not_confirmed", "Email not confirmed"},
		{"rest", 404, `{"code":"42P01","message":"relation does not exist","hint":null}`, "42P01", "relation does not exist"},
		{"plain", 502, `Bad Gateway`, "", "Bad Gateway"},
		{"empty", 500, ``, "", "Internal Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := decodeError(tc.status, []byte(tc.body))
			var ae *APIError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tc.wantCode, ae.Code)
			assert.Equal(t, tc.wantMsg, ae.Message)
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	live := &Session{AccessToken: supabasetest.IssueToken("u1", time.Hour)}
	dead := &Session{AccessToken: supabasetest.IssueToken("u1", -time.Minute)}
	opaque := &Session{AccessToken: "opaque", ExpiresAt: now.Add(-time.Hour).Unix()}

	assert.False(t, live.Expired(now))
	assert.True(t, dead.Expired(now))
	assert.True(t, opaque.Expired(now))
	assert.True(t, (*Session)(nil).Expired(now))
	assert.False(t, (&Session{AccessToken: "opaque"}).Expired(now))
}
