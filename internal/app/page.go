// internal/app/page.go
//
// The closed set of pages and the URL each one is served at.

package app

import "fmt"

// Page names one screen of the app.
type Page string

const (
	PageLogin       Page = "login"
	PageSignUp      Page = "signup"
	PageForgotPass  Page = "forgotpass"
	PageOnboarding  Page = "onboarding"
	PageIndex       Page = "index"
	PageEditProfile Page = "editprofile"
	PageAgenda      Page = "agenda"
	PageGraphics    Page = "graphics"
)

var pagePaths = map[Page]string{
	PageLogin:       "/login",
	PageSignUp:      "/signup",
	PageForgotPass:  "/forgot-password",
	PageOnboarding:  "/onboarding",
	PageIndex:       "/",
	PageEditProfile: "/profile/edit",
	PageAgenda:      "/agenda",
	PageGraphics:    "/graphics",
}

// Pages lists every page in display order.
var Pages = []Page{
	PageLogin, PageSignUp, PageForgotPass,
	PageOnboarding, PageIndex, PageEditProfile, PageAgenda, PageGraphics,
}

// Path returns the URL path the page is served at.
func (p Page) Path() string {
	if path, ok := pagePaths[p]; ok {
		return path
	}
	return "/"
}

// Public reports whether the page is meant for signed-out visitors.
func (p Page) Public() bool {
	return p == PageLogin || p == PageSignUp || p == PageForgotPass
}

// Valid reports whether p is one of the known pages.
func (p Page) Valid() bool {
	_, ok := pagePaths[p]
	return ok
}

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	p := Page(s)
	if !p.Valid() {
		return "", fmt.Errorf("app: unknown page %q", s)
	}
	return p, nil
}

// PageForPath maps a URL path back to its page.
func PageForPath(path string) (Page, bool) {
	for p, pp := range pagePaths {
		if pp == path {
			return p, true
		}
	}
	return "", false
}
