package supabase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew refreshes tokens slightly before the backend would reject them.
const expirySkew = 30 * time.Second

// Expiry returns the access token's expiry.  The JWT `exp` claim wins; the
// signature is not verified because only the backend can do that.  When the
// token is not a readable JWT, ExpiresAt is used.
func (s *Session) Expiry() time.Time {
	if s == nil {
		return time.Time{}
	}
	if s.AccessToken != "" {
		tok, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, jwt.MapClaims{})
		if err == nil {
			if exp, err := tok.Claims.GetExpirationTime(); err == nil && exp != nil {
				return exp.Time
			}
		}
	}
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return time.Time{}
}

// Expired reports whether the access token needs refreshing at now.  A
// session without any expiry information is treated as live.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(expirySkew).Before(exp)
}

// normalize fills ExpiresAt from ExpiresIn for backends that omit it.
func (s *Session) normalize(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}
