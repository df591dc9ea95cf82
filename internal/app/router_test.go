package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/authservice"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
	"github.com/toescalado/escalado/internal/supabase/supabasetest"
)

type fakeIDs struct {
	user  *supabase.User
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeIDs) GetCurrentUser(ctx context.Context, token string) (*supabase.User, error) {
	f.calls++
	if f.gate != nil {
		<-f.gate
	}
	if token == "" {
		return nil, nil
	}
	return f.user, f.err
}

type fakeProfiles struct {
	rec   *profile.Record
	err   error
	calls int
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*profile.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil {
		return nil, profile.ErrNotFound
	}
	return f.rec, nil
}

func user(id string) *supabase.User {
	return &supabase.User{ID: id, Email: id + "@example.com"}
}

func complete(id string) *profile.Record {
	return &profile.Record{ID: id, City: profile.Ptr("Rio"), Role: profile.Ptr("pilot")}
}

func TestBootstrapLanding(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		ids    *fakeIDs
		prof   *fakeProfiles
		page   Page
		status Status
	}{
		{"no session", "", &fakeIDs{}, &fakeProfiles{}, PageLogin, StatusAnonymous},
		{"identity error", "t", &fakeIDs{err: errors.New("boom")}, &fakeProfiles{}, PageLogin, StatusAnonymous},
		{"no profile", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{}, PageOnboarding, StatusOnboarding},
		{"profile error", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{err: errors.New("down")}, PageOnboarding, StatusOnboarding},
		{"missing city", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{rec: &profile.Record{ID: "u1", Role: profile.Ptr("pilot")}}, PageOnboarding, StatusOnboarding},
		{"blank role", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{rec: &profile.Record{ID: "u1", City: profile.Ptr("Rio"), Role: profile.Ptr("  ")}}, PageOnboarding, StatusOnboarding},
		{"mismatched profile", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{rec: complete("u2")}, PageOnboarding, StatusOnboarding},
		{"complete", "t", &fakeIDs{user: user("u1")}, &fakeProfiles{rec: complete("u1")}, PageIndex, StatusAuthenticated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHolder()
			assert.True(t, h.Snapshot().Loading)

			st, err := NewRouter(tc.ids, tc.prof, GuardAll).Bootstrap(context.Background(), h, tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.page, st.Page)
			assert.Equal(t, tc.status, st.Status)
			assert.False(t, st.Loading)
			assert.Equal(t, st, h.Snapshot())
		})
	}
}

func TestBootstrapSetsRoles(t *testing.T) {
	rec := complete("u1")
	rec.Role = profile.Ptr("admin, tripulante")
	st, err := NewRouter(&fakeIDs{user: user("u1")}, &fakeProfiles{rec: rec}, GuardAll).
		Bootstrap(context.Background(), NewHolder(), "t")
	require.NoError(t, err)
	require.NotNil(t, st.User)
	assert.True(t, st.User.Roles.Admin)
	assert.True(t, st.User.Roles.Crew)
	assert.False(t, st.User.Roles.Pilot)
}

func TestNavigateGuardAll(t *testing.T) {
	tests := []struct {
		status Status
		want   Page
		shown  Page
	}{
		{StatusAnonymous, PageSignUp, PageSignUp},
		{StatusAnonymous, PageAgenda, PageLogin},
		{StatusAuthenticated, PageLogin, PageIndex},
		{StatusAuthenticated, PageGraphics, PageGraphics},
		{StatusOnboarding, PageIndex, PageOnboarding},
		{StatusOnboarding, PageLogin, PageOnboarding},
	}
	r := NewRouter(&fakeIDs{}, &fakeProfiles{}, GuardAll)
	for _, tc := range tests {
		h := NewHolder()
		h.st.Loading = false
		h.st.Status = tc.status
		got := r.Navigate(h, tc.want)
		assert.Equal(t, tc.shown, got, "%s -> %s", tc.status, tc.want)
		assert.Equal(t, tc.shown, h.Snapshot().Page)
	}
}

func TestNavigateGuardBootstrap(t *testing.T) {
	r := NewRouter(&fakeIDs{}, &fakeProfiles{}, GuardBootstrap)
	h := NewHolder()
	_, err := r.Bootstrap(context.Background(), h, "")
	require.NoError(t, err)
	assert.Equal(t, PageAgenda, r.Navigate(h, PageAgenda))
}

func TestNavigateWhileLoading(t *testing.T) {
	r := NewRouter(&fakeIDs{}, &fakeProfiles{}, GuardBootstrap)
	h := NewHolder()
	assert.Equal(t, PageLogin, r.Navigate(h, PageAgenda))
	assert.True(t, h.Snapshot().Loading)
}

func TestRefreshUserKeepsPage(t *testing.T) {
	ids := &fakeIDs{user: user("u1")}
	prof := &fakeProfiles{rec: complete("u1")}
	r := NewRouter(ids, prof, GuardAll)
	h := NewHolder()
	_, err := r.Bootstrap(context.Background(), h, "t")
	require.NoError(t, err)
	require.Equal(t, PageEditProfile, r.Navigate(h, PageEditProfile))

	prof.rec = complete("u1")
	prof.rec.FullName = profile.Ptr("Novo Nome")
	st, err := r.RefreshUser(context.Background(), h, "t")
	require.NoError(t, err)
	assert.Equal(t, PageEditProfile, st.Page)
	assert.Equal(t, "Novo Nome", st.User.DisplayName())
	assert.Equal(t, 2, ids.calls)
	assert.Equal(t, 2, prof.calls)
}

func TestLateResultIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	slow := &fakeIDs{user: user("old"), gate: gate}
	r := NewRouter(slow, &fakeProfiles{rec: complete("old")}, GuardAll)
	h := NewHolder()

	done := make(chan error, 1)
	go func() {
		_, err := r.Bootstrap(context.Background(), h, "t")
		done <- err
	}()

	// Wait until the slow bootstrap holds its ticket.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.gen == 1
	}, time.Second, time.Millisecond)

	fast := NewRouter(&fakeIDs{user: user("new")}, &fakeProfiles{rec: complete("new")}, GuardAll)
	st, err := fast.Bootstrap(context.Background(), h, "t")
	require.NoError(t, err)
	assert.Equal(t, "new", st.User.Identity.ID)

	close(gate)
	require.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, "new", h.Snapshot().User.Identity.ID)
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("agenda")
	require.NoError(t, err)
	assert.Equal(t, "/agenda", p.Path())
	_, err = ParsePage("admin")
	assert.Error(t, err)

	got, ok := PageForPath("/forgot-password")
	assert.True(t, ok)
	assert.Equal(t, PageForgotPass, got)
}

// Bootstrap against the fake backend through the real client stack.
func TestBootstrapAgainstBackend(t *testing.T) {
	srv := supabasetest.New()
	defer srv.Close()
	id := srv.AddUser("pilot@example.com", "secret1", map[string]any{"full_name": "Ana"})

	c, err := supabase.New(supabase.Options{URL: srv.URL, AnonKey: supabasetest.AnonKey})
	require.NoError(t, err)
	svc := authservice.New(c, "")
	store := profile.NewRESTStore(c)
	r := NewRouter(svc, store, GuardAll)

	token := supabasetest.IssueToken(id, time.Hour)

	h := NewHolder()
	st, err := r.Bootstrap(context.Background(), h, token)
	require.NoError(t, err)
	assert.Equal(t, PageOnboarding, st.Page)

	srv.SetRows("profiles", map[string]any{"id": id, "city": "Natal", "role": "pilot"})
	st, err = r.Bootstrap(context.Background(), h, token)
	require.NoError(t, err)
	assert.Equal(t, PageIndex, st.Page)
	assert.Equal(t, StatusAuthenticated, st.Status)
	assert.True(t, st.User.Roles.Pilot)
}

func TestNavigateDoesNotSupersedeRefresh(t *testing.T) {
	ids := &fakeIDs{user: user("u1")}
	prof := &fakeProfiles{}
	r := NewRouter(ids, prof, GuardAll)
	h := NewHolder()
	st, err := r.Bootstrap(context.Background(), h, "t")
	require.NoError(t, err)
	require.Equal(t, StatusOnboarding, st.Status)

	// The profile is completed; a refresh starts and blocks on the backend.
	prof.rec = complete("u1")
	gate := make(chan struct{})
	ids.gate = gate
	done := make(chan error, 1)
	go func() {
		_, err := r.RefreshUser(context.Background(), h, "t")
		done <- err
	}()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.gen == 2
	}, time.Second, time.Millisecond)

	// Another tab navigates while the refresh is in flight.
	assert.Equal(t, PageOnboarding, r.Navigate(h, PageAgenda))

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StatusAuthenticated, h.Snapshot().Status)
	assert.Equal(t, PageIndex, r.Navigate(h, PageIndex))
}
