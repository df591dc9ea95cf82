package auth

// Local sign-up checks, evaluated in this order before any backend call.
const (
	MsgPasswordMismatch = "Senhas não conferem"
	MsgPasswordShort    = "A senha deve ter pelo menos 6 caracteres."
	MsgTermsRequired    = "Você deve aceitar os termos e condições"
)

// MinPasswordLen is the shortest password the form accepts.
const MinPasswordLen = 6

// SignUpForm is the sanitized sign-up submission.
type SignUpForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// Check returns the first local failure message, or "" when the form may
// be sent to the backend.
func (f SignUpForm) Check() string {
	switch {
	case f.Password != f.ConfirmPassword:
		return MsgPasswordMismatch
	case len([]rune(f.Password)) < MinPasswordLen:
		return MsgPasswordShort
	case !f.AcceptTerms:
		return MsgTermsRequired
	}
	return ""
}
