package home_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/toescalado/escalado/components/home"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/component/componenttest"
)

func TestIndexShowsWelcomeAndChrome(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "admin,pilot")

	rr := h.Get(app.PageIndex.Path())
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()

	assert.Contains(t, body, "Welcome to Toescalado")
	assert.Contains(t, body, "Ana Silva")
	assert.Contains(t, body, "ana@example.com")
	assert.Contains(t, body, `action="/logout"`)
	assert.Contains(t, body, `<meta name="description" content="Sua escala de voo`)

	// Nav header and bottom nav are drawn for signed-in users.
	assert.Contains(t, body, `class="navheader"`)
	assert.Contains(t, body, "ADMIN")
	assert.Contains(t, body, "PILOTO")
	assert.Contains(t, body, "Turma Naval")
	assert.Contains(t, body, `class="bottomnav"`)
	assert.Contains(t, body, "Compartilhar")
}

func TestIndexNeedsCompleteProfile(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "")

	rr := h.Get(app.PageIndex.Path())
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, app.PageOnboarding.Path(), componenttest.Location(rr))
}

func TestLoginPageHasNoChrome(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)

	rr := h.Get(app.PageLogin.Path())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `class="navheader"`)
}
