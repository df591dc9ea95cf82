// components/agenda/agenda.go
//
// Agenda component: the event list, the month grid, and the create-event
// form.
//
// Context
// -------
// Events are the in-memory samples from internal/agenda, rebuilt around
// the current time on every request.  A created event is validated,
// logged, and acknowledged with a flash; it is not stored anywhere.
//
// Routes
// ------
//   GET  /agenda          ?view=list|month  ?q=<search>  ?month=YYYY-MM
//   POST /agenda/events   admin or pilot only
//
//------------------------------------------------------------------------------

package agenda

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/toescalado/escalado/internal/acl"
	events "github.com/toescalado/escalado/internal/agenda"
	"github.com/toescalado/escalado/internal/app"
	"github.com/toescalado/escalado/internal/auth"
	"github.com/toescalado/escalado/internal/component"
	"github.com/toescalado/escalado/internal/form"
	"github.com/toescalado/escalado/internal/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed forms/*.yaml
var formsFS embed.FS

// CreatePath receives the create-event form.
const CreatePath = "/agenda/events"

// CreateRoles may submit the create-event form.
var CreateRoles = []string{acl.RoleAdmin, acl.RolePilot}

var _ component.Component = (*Component)(nil)

// Component serves the agenda.
type Component struct {
	deps *component.Deps
	now  func() time.Time
}

func (c *Component) Name() string { return "agenda" }

func (c *Component) Init(d *component.Deps) error {
	c.deps = d
	if c.now == nil {
		c.now = time.Now
	}
	return nil
}

func (c *Component) Templates() fs.FS { return sub(templatesFS, "templates") }
func (c *Component) Forms() fs.FS     { return sub(formsFS, "forms") }

func (c *Component) Routes(r chi.Router) {
	d := c.deps
	p := app.PageAgenda
	r.Method(http.MethodGet, p.Path(), d.Page(p, http.HandlerFunc(c.list)))
	r.Method(http.MethodPost, CreatePath, d.Page(p, acl.RequireRole(CreateRoles...)(http.HandlerFunc(c.create))))
}

func init() { component.Register(&Component{}) }

func sub(fsys fs.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return s
}

/*──────────────────────────── view model ───────────────────────────────────*/

// Row is one event as the list shows it.
type Row struct {
	events.EventItem
	DurationText string
}

// Page is the data agenda.html renders.
type Page struct {
	View       events.ViewMode
	Query      string
	Rows       []Row
	Month      string // "outubro de 2026"
	MonthParam string // "2026-10"
	PrevMonth  string
	NextMonth  string
	Weeks      [][]events.Cell
	Weekdays   []string
	CanCreate  bool
	Fallback   bool
	Form       component.FormData
}

var weekdays = []string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

var months = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// DurationText renders minutes for the list, "—" when unknown.
func DurationText(e events.EventItem) string {
	if m, ok := e.Duration(); ok {
		return strconv.Itoa(m)
	}
	return "—"
}

// monthRef parses ?month=YYYY-MM, falling back to now's month.
func monthRef(raw string, now time.Time) time.Time {
	if t, err := time.ParseInLocation("2006-01", raw, now.Location()); err == nil {
		if t.Year() == now.Year() && t.Month() == now.Month() {
			return now
		}
		return t
	}
	return now
}

func (c *Component) build(r *http.Request, fd component.FormData) Page {
	now := c.now()
	q := r.URL.Query()
	pg := Page{
		View:     events.ParseView(q.Get("view")),
		Query:    strings.TrimSpace(q.Get("q")),
		Weekdays: weekdays,
		Form:     fd,
	}
	if pr, ok := auth.FromContext(r.Context()); ok {
		pg.CanCreate = pr.HasRole(CreateRoles...)
	}

	list := events.Filter(events.SampleEvents(now), pg.Query)
	for _, e := range list {
		pg.Rows = append(pg.Rows, Row{EventItem: e, DurationText: DurationText(e)})
	}

	ref := monthRef(q.Get("month"), now)
	pg.Month = fmt.Sprintf("%s de %d", months[ref.Month()-1], ref.Year())
	pg.MonthParam = ref.Format("2006-01")
	pg.PrevMonth = ref.AddDate(0, -1, 1-ref.Day()).Format("2006-01")
	pg.NextMonth = ref.AddDate(0, 1, 1-ref.Day()).Format("2006-01")
	pg.Weeks = events.Weeks(events.MonthGrid(ref, list))

	opts, fallback := events.Participants(r.Context(), c.deps.Directory)
	pg.Fallback = fallback
	choices := make([]form.Choice, 0, len(opts))
	for _, p := range opts {
		choices = append(choices, form.Choice{Value: p.ID, Label: p.Name})
	}
	if pg.Form.Choices == nil {
		pg.Form.Choices = map[string][]form.Choice{}
	}
	pg.Form.Choices["participants"] = choices
	return pg
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (c *Component) list(w http.ResponseWriter, r *http.Request) {
	head := component.Current(r.Context()).View.Head
	head.SetTitle("Agenda")
	head.Description("Eventos e escalas da Turma Naval.")
	c.deps.Render(w, r, "agenda", "agenda", c.build(r, component.FormData{}))
}

// create validates and logs a new event.  Nothing is persisted.
func (c *Component) create(w http.ResponseWriter, r *http.Request) {
	pc := component.Current(r.Context())
	pc.View.Head.SetTitle("Agenda")
	log := logger.FromContext(r.Context())
	fail := func(errs map[string]string) {
		c.deps.Render(w, r, "agenda", "agenda", c.build(r, component.FormData{
			Prefill:  component.Prefill(r, "participants"),
			Selected: map[string][]string{"participants": r.PostForm["participants"]},
			Errors:   errs,
		}))
	}

	data, err := form.HandleSubmit("agenda/event", r)
	if err != nil {
		if form.IsValidationError(err) {
			fail(form.ErrorMap(form.FieldErrors(err)))
			return
		}
		log.Errorw("event form failed", "err", err)
		fail(component.FormError(component.MsgUnexpected))
		return
	}

	opts, _ := events.Participants(r.Context(), c.deps.Directory)
	draft := events.Draft{
		Title:        form.String(data, "title"),
		Description:  form.String(data, "description"),
		Start:        form.String(data, "start"),
		End:          form.String(data, "end"),
		Duration:     form.String(data, "duration"),
		Location:     form.String(data, "location"),
		DepartmentID: events.DepartmentByName(form.String(data, "department")),
		Participants: events.Lookup(opts, form.Strings(data, "participants")),
	}
	ev, err := draft.Build(c.now().Location())
	if err != nil {
		var fe *events.FieldError
		if errors.As(err, &fe) {
			fail(map[string]string{fe.Field: fe.Err.Error()})
			return
		}
		fail(component.FormError(err.Error()))
		return
	}

	minutes, _ := ev.Duration()
	log.Infow("event drafted",
		"id", ev.ID,
		"title", ev.Title,
		"start", ev.Start.Format(time.RFC3339),
		"duration_min", minutes,
		"department", ev.DepartmentID,
		"participants", ev.ParticipantNames(),
	)
	pc.Entry.Flash(fmt.Sprintf("Evento %q registrado.", ev.Title))
	http.Redirect(w, r, app.PageAgenda.Path(), http.StatusSeeOther)
}
