// Package authservice wraps the backend auth endpoints behind a uniform
// Result shape.  Pages call exactly one operation per submit and render
// Result.Message inline; no local validation and no retries happen here.
package authservice

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/metrics"
	"github.com/toescalado/escalado/internal/supabase"
)

// Messages returned on success.
const (
	MsgSignUpConfirm = "Check your email to confirm the account"
	MsgSignUpDone    = "Account created"
	MsgSignIn        = "Logged in successfully"
	MsgReset         = "Check your email for password reset instructions if account exists"
	MsgSignOut       = "Logged out successfully"
	MsgProfile       = "Profile updated"
	MsgUnknown       = "Unknown error occurred"
	MsgUnreachable   = "Backend unreachable, try again shortly"
	MsgTimeout       = "Backend did not answer in time, try again shortly"
)

// ResetPath is where the recovery link lands, relative to the public URL.
const ResetPath = "/reset-password"

// Backend is the subset of *supabase.Client the service needs.
type Backend interface {
	SignUp(ctx context.Context, email, password string, data map[string]any, redirectTo string) (*supabase.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	UpdateUser(ctx context.Context, accessToken string, attrs supabase.UserAttributes) (*supabase.User, error)
}

// Result is the outcome of one auth operation.  On success Error is empty;
// on failure Message and Error both hold the backend's message.
type Result struct {
	Success bool
	Message string
	User    *supabase.User
	Session *supabase.Session
	Error   string
}

type (
	SignUpInput struct {
		Email    string
		Password string
		FullName string
	}
	SignInInput struct {
		Email    string
		Password string
	}
	ResetPasswordInput struct {
		Email  string
		Origin string // used when no public URL is configured
	}
	UpdateProfileInput struct {
		FullName string
	}
)

// Service is safe for concurrent use.
type Service struct {
	backend   Backend
	publicURL string
	now       func() time.Time
}

// New returns a Service.  publicURL, when set, is the origin used to build
// email redirect links.
func New(b Backend, publicURL string) *Service {
	return &Service{backend: b, publicURL: strings.TrimRight(publicURL, "/"), now: time.Now}
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) Result {
	res, err := s.backend.SignUp(ctx, in.Email, in.Password,
		map[string]any{"full_name": in.FullName}, "")
	s.observe(ctx, "sign_up", err)
	if err != nil {
		return failure(err)
	}
	msg := MsgSignUpConfirm
	if res.User.Confirmed() {
		msg = MsgSignUpDone
	}
	return Result{Success: true, Message: msg, User: res.User, Session: res.Session}
}

func (s *Service) SignIn(ctx context.Context, in SignInInput) Result {
	sess, err := s.backend.SignInWithPassword(ctx, in.Email, in.Password)
	s.observe(ctx, "sign_in", err)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, Message: MsgSignIn, User: sess.User, Session: sess}
}

func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) Result {
	origin := s.publicURL
	if origin == "" {
		origin = strings.TrimRight(in.Origin, "/")
	}
	redirect := ""
	if origin != "" {
		redirect = origin + ResetPath
	}
	err := s.backend.ResetPasswordForEmail(ctx, in.Email, redirect)
	s.observe(ctx, "reset_password", err)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, Message: MsgReset}
}

func (s *Service) SignOut(ctx context.Context, accessToken string) Result {
	err := s.backend.SignOut(ctx, accessToken)
	s.observe(ctx, "sign_out", err)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, Message: MsgSignOut}
}

func (s *Service) UpdateProfile(ctx context.Context, accessToken string, in UpdateProfileInput) Result {
	u, err := s.backend.UpdateUser(ctx, accessToken, supabase.UserAttributes{
		Data: map[string]any{"full_name": in.FullName},
	})
	s.observe(ctx, "update_profile", err)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, Message: MsgProfile, User: u}
}

// GetCurrentUser returns the identity behind accessToken.  A missing,
// expired, or rejected token yields (nil, nil); only transport-level
// failures are returned as errors.
func (s *Service) GetCurrentUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	if accessToken == "" {
		return nil, nil
	}
	u, err := s.backend.GetUser(ctx, accessToken)
	s.observe(ctx, "get_user", err)
	if err != nil {
		if rejected(err) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetSession returns a live session, refreshing it when the access token
// has expired.  A session the backend no longer honours yields (nil, nil).
func (s *Service) GetSession(ctx context.Context, sess *supabase.Session) (*supabase.Session, error) {
	if sess == nil {
		return nil, nil
	}
	if !sess.Expired(s.now()) {
		return sess, nil
	}
	if sess.RefreshToken == "" {
		return nil, nil
	}
	fresh, err := s.backend.RefreshSession(ctx, sess.RefreshToken)
	s.observe(ctx, "refresh", err)
	if err != nil {
		if _, ok := supabase.AsAPIError(err); ok {
			return nil, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (s *Service) observe(ctx context.Context, op string, err error) {
	metrics.AuthRequests.WithLabelValues(op, metrics.Outcome(err)).Inc()
	if err != nil {
		logger.FromContext(ctx).Infow("auth operation failed", "op", op, "err", err)
	}
}

// failure carries the backend's message verbatim.  Transport failures
// that never reached the backend get a short operator-facing message.
func failure(err error) Result {
	msg := supabase.Message(err)
	var ne net.Error
	switch {
	case msg != "":
	case errors.Is(err, context.DeadlineExceeded):
		msg = MsgTimeout
	case errors.As(err, &ne):
		msg = MsgUnreachable
		if ne.Timeout() {
			msg = MsgTimeout
		}
	default:
		msg = MsgUnknown
	}
	return Result{Success: false, Message: msg, Error: msg}
}

// rejected reports whether err means "this token is not a signed-in user".
func rejected(err error) bool {
	ae, ok := supabase.AsAPIError(err)
	if !ok {
		return false
	}
	return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
}
