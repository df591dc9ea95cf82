package agenda_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/toescalado/escalado/components/agenda"
	events "github.com/toescalado/escalado/internal/agenda"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/component/componenttest"
)

func TestDurationText(t *testing.T) {
	for _, e := range events.SampleEvents(testNow) {
		switch e.ID {
		case "e1":
			assert.Equal(t, "60", agenda.DurationText(e))
		case "e2":
			assert.Equal(t, "90", agenda.DurationText(e))
		}
	}
	assert.Equal(t, "—", agenda.DurationText(events.EventItem{Start: testNow}))
}

func TestListView(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "pilot")

	rr := h.Get(app.PageAgenda.Path())
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Reunião de alinhamento")
	assert.Contains(t, body, "Planejamento de Sprint")
	assert.Contains(t, body, "Duração: 90 minutos")

	// Pilots get the create form with participants from the directory.
	assert.Contains(t, body, "Novo evento")
	assert.Contains(t, body, `>Ana Silva</option>`)
	assert.NotContains(t, body, "Lista de participantes padrão")
}

func TestSearch(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "pilot")

	rr := h.Get(app.PageAgenda.Path() + "?q=sprint")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Planejamento de Sprint")
	assert.NotContains(t, body, "Alinhar metas do trimestre")

	rr = h.Get(app.PageAgenda.Path() + "?q=nada-disso")
	assert.Contains(t, rr.Body.String(), "Nenhum evento encontrado.")
}

func TestMonthView(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "pilot")

	rr := h.Get(app.PageAgenda.Path() + "?view=month&month=2026-10")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, events.GridCells, strings.Count(body, `<td class="day`))
	assert.Contains(t, body, "outubro de 2026")
	assert.Contains(t, body, "month=2026-09")
	assert.Contains(t, body, "month=2026-11")
}

func TestMemberCannotCreate(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "member")

	rr := h.Get(app.PageAgenda.Path())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Novo evento")

	rr = h.Post(agenda.CreatePath, url.Values{"title": {"X"}, "start": {"2026-10-20T09:00"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateEventIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "admin")

	rr := h.Post(agenda.CreatePath, url.Values{
		"title":      {"Voo de treino"},
		"start":      {"2026-10-20T09:00"},
		"end":        {"2026-10-20T10:15"},
		"department": {"Operações"},
	})
	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, app.PageAgenda.Path(), componenttest.Location(rr))

	drafted := logs.FilterMessage("event drafted").All()
	require.Len(t, drafted, 1)
	fields := drafted[0].ContextMap()
	assert.Equal(t, "Voo de treino", fields["title"])
	assert.EqualValues(t, 75, fields["duration_min"])
	assert.Equal(t, "d1", fields["department"])
	assert.Equal(t, "voo-de-treino-202610200900", fields["id"])

	rr = h.Get(app.PageAgenda.Path())
	assert.Contains(t, rr.Body.String(), "registrado.")
	// Not persisted.
	assert.NotContains(t, rr.Body.String(), `id="event-voo-de-treino`)
}

func TestCreateEventErrors(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)
	h.SignIn("ana@example.com", "secret1", "pilot")

	rr := h.Post(agenda.CreatePath, url.Values{"start": {"2026-10-20T09:00"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "has-error")

	rr = h.Post(agenda.CreatePath, url.Values{
		"title":    {"Voo"},
		"start":    {"2026-10-20T09:00"},
		"duration": {"-5"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "non-negative number")
	assert.Contains(t, body, `value="Voo"`)
}

func TestAgendaNeedsSignIn(t *testing.T) {
	h := componenttest.New(t, app.GuardAll)

	rr := h.Get(app.PageAgenda.Path())
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, app.PageLogin.Path(), componenttest.Location(rr))
}

var testNow = mustTime("2026-10-18T10:00:00Z")

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
