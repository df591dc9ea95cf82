package view

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/theme"
	"github.com/toescalado/escalado/internal/widget"
)

type echoWidget struct{}

func (echoWidget) ID() string { return "test/echo" }
func (echoWidget) Render(rctx any, params map[string]any) (string, int, error) {
	rc := rctx.(*Context)
	return "<b>" + string(rc.State.Page) + ":" + params["v"].(string) + "</b>", int(CacheDefault), nil
}

func newCtx(t *testing.T, th *theme.Theme) *Context {
	t.Helper()
	rc := NewContext(httptest.NewRequest(http.MethodGet, "/", nil), th)
	rc.State = app.State{Page: app.PageLogin, Status: app.StatusAnonymous}
	return rc
}

func TestRenderWrapsLayout(t *testing.T) {
	widget.Register(echoWidget{})
	RegisterTemplates("viewtest", fstest.MapFS{
		"hello.html": {Data: []byte(`{{ define "row" }}<li>{{ . }}</li>{{ end }}<h1>Olá {{ .Data.Name }}</h1>{{ template "row" "x" }}{{ widget "test/echo" (dict "v" "ok") }}`)},
	})

	rc := newCtx(t, theme.New("", ""))
	rc.Head.SetTitle("Teste")
	rc.Flash = "Bem-vindo"

	rr := httptest.NewRecorder()
	require.NoError(t, Render(rc, rr, "viewtest", "hello", map[string]string{"Name": "<Ana>"}, CacheDefault))

	body := rr.Body.String()
	assert.Contains(t, body, "<title>Teste | Tô Escalado?</title>")
	assert.Contains(t, body, "Olá &lt;Ana&gt;")
	assert.Contains(t, body, "<li>x</li>")
	assert.Contains(t, body, "<b>login:ok</b>")
	assert.Contains(t, body, "Bem-vindo")
	assert.Contains(t, body, "/themes/default/assets/app.css")
	assert.NotContains(t, body, "navheader")
}

func TestRenderUnknownTemplate(t *testing.T) {
	RegisterTemplates("viewtest2", fstest.MapFS{"a.html": {Data: []byte("a")}})
	rc := newCtx(t, nil)
	err := Render(rc, httptest.NewRecorder(), "viewtest2", "missing", nil, CacheSkip)
	assert.Error(t, err)
	err = Render(rc, httptest.NewRecorder(), "nocomp", "a", nil, CacheSkip)
	assert.Error(t, err)
}

func TestThemeOverrideWins(t *testing.T) {
	RegisterTemplates("viewtest3", fstest.MapFS{"card.html": {Data: []byte("embedded")}})
	root := t.TempDir()
	dir := filepath.Join(root, "components", "viewtest3", "templates")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.html"), []byte("override"), 0o644))

	out, _, err := RenderToString(newCtx(t, theme.New("custom", root)), "viewtest3", "card", nil)
	require.NoError(t, err)
	assert.Equal(t, "override", strings.TrimSpace(string(out)))

	out, _, err = RenderToString(newCtx(t, theme.New("", "")), "viewtest3", "card", nil)
	require.NoError(t, err)
	assert.Equal(t, "embedded", string(out))
}

func TestRenderLoading(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, RenderLoading(newCtx(t, nil), rr))
	assert.Contains(t, rr.Body.String(), "Carregando")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestDict(t *testing.T) {
	m := dict("a", 1, "b", "two", "dangling")
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
}
