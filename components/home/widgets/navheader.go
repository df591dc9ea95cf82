// components/home/widgets/navheader.go
//
// Nav header widget: avatar, display name, naval class, and role badges
// for the signed-in user.  Rendered by the base layout on every page once
// the session has an identity.
package widgets

import (
	"strings"

	"github.com/toescalado/escalado/internal/acl"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
	"github.com/toescalado/escalado/internal/view"
	"github.com/toescalado/escalado/internal/widget"
)

const (
	avatarFallback = "https://i.pravatar.cc/150?u="
	defaultName    = "Piloto"
	defaultNaval   = "Turma Naval"
)

var _ widget.Widget = (*NavHeader)(nil)

// NavHeader implements widget.Widget.
type NavHeader struct{}

func (w *NavHeader) ID() string { return "home/navheader" }

// Render draws the header for rctx's user.  Anonymous states render
// nothing.
func (w *NavHeader) Render(rctx any, _ map[string]any) (string, int, error) {
	rc, ok := rctx.(*view.Context)
	if !ok || rc.State.User == nil {
		return "", int(view.CacheSkip), nil
	}
	html, _, err := view.RenderToString(rc, "home", "navheader", Header(rc.State.User))
	return string(html), int(view.CacheSkip), err
}

// HeaderData is what navheader.html renders.
type HeaderData struct {
	AvatarURL string
	Name      string
	NavalName string
	Badges    []acl.Badge
}

// Header resolves the header fields.  Avatar: profile, then metadata, then
// a generated placeholder.  Name: profile, metadata name, metadata
// full_name, email local part, then "Piloto".
func Header(u *app.CurrentUser) HeaderData {
	id, email := "user", ""
	var meta supabase.Metadata
	if u.Identity != nil {
		if u.Identity.ID != "" {
			id = u.Identity.ID
		}
		email = u.Identity.Email
		meta = u.Identity.UserMetadata
	}
	var avatar, name string
	if u.Profile != nil {
		avatar = profile.Str(u.Profile.AvatarURL)
		name = profile.Str(u.Profile.FullName)
	}
	local, _, _ := strings.Cut(email, "@")

	return HeaderData{
		AvatarURL: first(avatar, meta.AvatarURL(), avatarFallback+id),
		Name:      first(name, meta.Name(), meta.FullName(), local, defaultName),
		NavalName: first(meta.NavalName(), defaultNaval),
		Badges:    u.Roles.Badges(),
	}
}

func first(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func init() { widget.Register(&NavHeader{}) }
