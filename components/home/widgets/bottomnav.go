// components/home/widgets/bottomnav.go
package widgets

import (
	"net/url"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/view"
	"github.com/toescalado/escalado/internal/widget"
)

// ShareToast is shown after the share link lands on the clipboard.
const ShareToast = "Link copiado para a área de transferência!"

var _ widget.Widget = (*BottomNav)(nil)

// BottomNav implements widget.Widget.
type BottomNav struct{}

func (w *BottomNav) ID() string { return "home/bottomnav" }

// NavItem is one bottom bar entry.  Share items carry no Href.
type NavItem struct {
	ID     string
	Label  string
	Href   string
	Active bool
}

// NavData is what bottomnav.html renders.
type NavData struct {
	Items     []NavItem
	ShareLink string
	Toast     string
}

// Items lists the bar for page.  The list and calendar entries both open
// the agenda, in its two view modes.
func Items(page app.Page, view string) []NavItem {
	agenda := app.PageAgenda.Path()
	items := []NavItem{
		{ID: "agenda-list", Label: "Agenda", Href: agenda + "?view=list"},
		{ID: "agenda-calendar", Label: "Calendário", Href: agenda + "?view=month"},
		{ID: "graphics", Label: "Gráficos", Href: app.PageGraphics.Path()},
		{ID: "editprofile", Label: "Perfil", Href: app.PageEditProfile.Path()},
		{ID: "share", Label: "Compartilhar"},
	}
	for i := range items {
		switch items[i].ID {
		case "agenda-list":
			items[i].Active = page == app.PageAgenda && view != "month"
		case "agenda-calendar":
			items[i].Active = page == app.PageAgenda && view == "month"
		case "graphics":
			items[i].Active = page == app.PageGraphics
		case "editprofile":
			items[i].Active = page == app.PageEditProfile
		}
	}
	return items
}

// ShareLink is the site origin with a ref parameter naming the user.
func ShareLink(origin, userID string) string {
	if userID == "" {
		return origin
	}
	return origin + "/?ref=" + url.QueryEscape(userID)
}

func (w *BottomNav) Render(rctx any, _ map[string]any) (string, int, error) {
	rc, ok := rctx.(*view.Context)
	if !ok || rc.State.User == nil || rc.State.User.Identity == nil {
		return "", int(view.CacheSkip), nil
	}
	r := rc.Request
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	data := NavData{
		Items:     Items(rc.State.Page, r.URL.Query().Get("view")),
		ShareLink: ShareLink(scheme+"://"+r.Host, rc.State.User.Identity.ID),
		Toast:     ShareToast,
	}
	html, _, err := view.RenderToString(rc, "home", "bottomnav", data)
	return string(html), int(view.CacheSkip), err
}

func init() { widget.Register(&BottomNav{}) }
