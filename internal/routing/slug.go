// internal/routing/slug.go
//
// Slug and path helpers.
//
// • MakeSlug(title) ─ converts arbitrary text into a URL-safe slug restricted
//   to ASCII a-z, 0-9 and “-”.  Portuguese titles keep their letters:
//   accents are stripped first, so “Reunião de alinhamento” becomes
//   “reuniao-de-alinhamento”.
// • BuildPath(parent, slug) ─ joins parent path + slug with a single “/” and
//   guarantees exactly one leading slash.
//
// Rules (MakeSlug)
// ----------------
// 1. NFD-decompose and drop combining marks (ã → a, ç → c).
// 2. Lower-case everything.
// 3. Convert any run of non-[a-z0-9] characters to one “-”.
// 4. Trim leading / trailing “-”.
// 5. If the result is empty, return "item".
//
// Notes
// -----
// • Slugs are at most maxSlug bytes.
// • The agenda uses MakeSlug for event ids.

package routing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks.  A fresh chain per call because
// transform.Chain is stateful.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// maxSlug bounds MakeSlug output in bytes (ASCII, so also runes).
const maxSlug = 100

// MakeSlug converts title → lower-kebab ASCII.
func MakeSlug(title string) string {
	words := strings.FieldsFunc(strings.ToLower(foldAccents(title)), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	slug := strings.Join(words, "-")
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	if slug == "" {
		return "item"
	}
	return slug
}

// BuildPath joins parent + slug ensuring exactly one leading slash and no
// duplicate separators.
func BuildPath(parent, slug string) string {
	parent = strings.Trim(parent, "/")
	slug = strings.Trim(slug, "/")

	switch {
	case parent == "" && slug == "":
		return "/"
	case parent == "":
		return "/" + slug
	case slug == "":
		return "/" + parent
	default:
		return "/" + parent + "/" + slug
	}
}
