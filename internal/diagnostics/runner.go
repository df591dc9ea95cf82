// internal/diagnostics/runner.go
//
// Backend diagnostics.
//
// Context
// -------
// Operators run these from cmd/diagnose when sign-in misbehaves.  Each
// exported method mirrors one maintenance script:
//
//   • Check       – five-step full diagnosis with a final report
//   • Connection  – can we reach the REST endpoint and the auth service
//   • Database    – profiles access plus the admin user listing attempt
//   • Login       – sign in with given credentials and fetch the profile
//   • CreateUser  – sign up, insert a profile when a session comes back
//   • Schema      – probe known tables and list their column keys
//
// Workflow
// --------
//   1. cmd/diagnose builds a supabase.Client from config.
//   2. It calls one Runner method with a context carrying a deadline.
//   3. The returned Report is printed; the process exits 0 regardless.
//
// Notes
// -----
// • Error codes 42P01 and 42501 map to fixed remediation hints.
// • The anon key is never printed beyond its first 30 characters.

package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/profile"
	"github.com/toescalado/escalado/internal/supabase"
)

// ProbeCredentials are deliberately wrong; the backend must reject them
// with "Invalid login credentials" for the auth check to pass.
const (
	ProbeEmail    = "test@test.com"
	ProbePassword = "wrongpassword"
)

// SchemaTables are the tables Schema probes, in order.
var SchemaTables = []string{"profiles", "users", "agenda", "schedules", "departments"}

// AuthUserFields are the identity columns listed when no user is signed in.
var AuthUserFields = []string{
	"id (uuid)", "email (text)", "created_at (timestamp)", "updated_at (timestamp)",
	"last_sign_in_at (timestamp)", "email_confirmed_at (timestamp)", "phone (text)",
	"confirmed_at (timestamp)", "user_metadata (jsonb)", "app_metadata (jsonb)",
}

const (
	recCreateUser = "Crie um usuário de teste usando: escalado-diagnose create-user"
	recRunSQL     = "Execute o script setup-supabase-rls.sql"
	recRLS        = "Configure políticas RLS corretamente"
	recEmailConf  = "Desabilite confirmação de email OU configure SMTP"
)

// Backend is the client surface diagnostics need.  *supabase.Client
// satisfies it.
type Backend interface {
	profile.REST
	URL() string
	AnonKey() string
	Count(ctx context.Context, table string, q supabase.Query) (int, error)
	Settings(ctx context.Context) (map[string]any, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password string, data map[string]any, redirectTo string) (*supabase.SignUpResult, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	AdminListUsers(ctx context.Context, page, perPage int) ([]supabase.User, error)
}

// Runner executes diagnostics against one backend.
type Runner struct {
	b Backend
}

// New returns a Runner for b.
func New(b Backend) *Runner { return &Runner{b: b} }

// Backend returns the client the runner probes.
func (r *Runner) Backend() Backend { return r.b }

/*──────────────────────────── check ───────────────────────────────────────*/

// Check runs the full five-step diagnosis.
func (r *Runner) Check(ctx context.Context) *Report {
	rep := &Report{Title: "Diagnóstico completo - sistema de login"}
	log := logger.FromContext(ctx)

	// 1. connection
	st := rep.add(Step{Name: "[1/5] Conexão com o backend"})
	if _, err := r.b.Count(ctx, "profiles", supabase.Query{}); err != nil {
		st.Status, st.Summary = Fail, "Erro: "+message(err)
		if _, ok := supabase.AsAPIError(err); ok {
			rep.issue("Erro ao conectar com o backend")
		} else {
			rep.issue("Falha crítica na conexão")
		}
	} else {
		st.Status, st.Summary = Pass, "Conexão estabelecida"
	}

	// 2. auth service
	st = rep.add(Step{Name: "[2/5] Serviço de autenticação"})
	if settings, err := r.b.Settings(ctx); err != nil {
		st.Status, st.Summary = Fail, "Erro: "+message(err)
		rep.issue("Serviço de autenticação inacessível")
	} else {
		st.Status, st.Summary = Pass, "Serviço de autenticação ativo"
		if auto, ok := settings["mailer_autoconfirm"].(bool); ok {
			st.Details = append(st.Details, fmt.Sprintf("Confirmação automática de email: %t", auto))
		}
	}

	// 3. profiles table
	st = rep.add(Step{Name: "[3/5] Tabela profiles"})
	var rows []map[string]any
	if err := r.b.Select(ctx, "profiles", supabase.Query{Limit: 5}, &rows); err != nil {
		st.Status, st.Summary = Fail, "Erro: "+message(err)
		if apiErr, ok := supabase.AsAPIError(err); ok && apiErr.Code != "" {
			st.Details = append(st.Details, "Código: "+apiErr.Code)
		}
		switch {
		case supabase.HasCode(err, supabase.CodeUndefinedTable):
			rep.issue("Tabela profiles não existe")
			rep.recommend(recRunSQL)
		case supabase.HasCode(err, supabase.CodeInsufficientPrivilege):
			rep.issue("Sem permissão para acessar tabela profiles")
			rep.recommend(recRLS)
		default:
			rep.issue("Erro ao acessar profiles: " + message(err))
		}
	} else {
		st.Status, st.Summary = Pass, "Tabela profiles acessível"
		st.Details = append(st.Details, fmt.Sprintf("Registros encontrados: %d", len(rows)))
		if len(rows) == 0 {
			st.Status = Warn
			st.Details = append(st.Details, "Tabela está vazia - nenhum perfil cadastrado")
			rep.recommend(recCreateUser)
		}
	}

	// 4. auth round trip with known-bad credentials
	st = rep.add(Step{Name: "[4/5] Capacidade de autenticação"})
	r.probeLogin(ctx, rep, st)

	// 5. configuration
	st = rep.add(Step{Name: "[5/5] Configuração"})
	r.configStep(rep, st)

	if rep.OK() {
		rep.NextSteps = []string{
			"Crie um usuário: escalado-diagnose create-user",
			"Inicie o servidor: escalado-web",
			"Acesse a URL pública configurada em http.public_url",
		}
	}
	log.Infow("diagnostics check finished", "ok", rep.OK(), "issues", len(rep.Issues))
	return rep
}

func (r *Runner) probeLogin(ctx context.Context, rep *Report, st *Step) {
	_, err := r.b.SignInWithPassword(ctx, ProbeEmail, ProbePassword)
	if err == nil {
		st.Status, st.Summary = Warn, "Credenciais de teste não deveriam funcionar"
		return
	}
	msg := message(err)
	if _, ok := supabase.AsAPIError(err); !ok {
		st.Status, st.Summary = Fail, "Erro: "+msg
		return
	}
	switch {
	case msg == supabase.MsgInvalidCredentials:
		st.Status, st.Summary = Pass, "Sistema de autenticação funcionando"
		st.Details = append(st.Details, "(Falha esperada com credenciais de teste)")
	case strings.Contains(msg, supabase.MsgEmailNotConfirmed):
		st.Status, st.Summary = Warn, "Erro inesperado: "+msg
		rep.issue("Confirmação de email está habilitada")
		rep.recommend(recEmailConf)
	default:
		st.Status, st.Summary = Warn, "Erro inesperado: "+msg
	}
}

func (r *Runner) configStep(rep *Report, st *Step) {
	st.Status, st.Summary = Pass, "Variáveis configuradas"
	if u := r.b.URL(); u == "" {
		st.Status = Fail
		st.Details = append(st.Details, "backend.url não configurada")
		rep.issue("Variável backend.url (SUPABASE_URL) ausente")
	} else {
		st.Details = append(st.Details, "URL: "+u)
	}
	if k := r.b.AnonKey(); k == "" {
		st.Status = Fail
		st.Details = append(st.Details, "backend.anon_key não configurada")
		rep.issue("Variável backend.anon_key (SUPABASE_ANON_KEY) ausente")
	} else {
		st.Details = append(st.Details, "Key: "+Truncate(k, 30)+"...")
	}
	if st.Status == Fail {
		st.Summary = "Configuração incompleta"
	}
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

/*──────────────────────────── single scripts ──────────────────────────────*/

// Connection checks REST reachability and the auth service.
func (r *Runner) Connection(ctx context.Context) *Report {
	rep := &Report{Title: "Teste de conexão"}
	st := rep.add(Step{Name: "Conexão", Details: []string{
		"URL: " + r.b.URL(),
		"Key: " + Truncate(r.b.AnonKey(), 20) + "...",
	}})
	if n, err := r.b.Count(ctx, "profiles", supabase.Query{}); err != nil {
		st.Status, st.Summary = Fail, "Erro ao conectar: "+message(err)
		rep.issue("Erro ao conectar com o backend")
	} else {
		st.Status, st.Summary = Pass, "Conexão bem-sucedida"
		st.Details = append(st.Details, fmt.Sprintf("profiles: %d registros", n))
	}

	st = rep.add(Step{Name: "Autenticação"})
	if _, err := r.b.Settings(ctx); err != nil {
		st.Status, st.Summary = Fail, "Erro ao verificar o serviço: "+message(err)
		rep.issue("Serviço de autenticação inacessível")
	} else {
		st.Status, st.Summary = Pass, "Serviço de autenticação está acessível"
	}
	return rep
}

// Database checks profiles access and tries the admin user listing, which
// is expected to fail without a service-role key.
func (r *Runner) Database(ctx context.Context) *Report {
	rep := &Report{Title: "Verificação da estrutura do banco de dados"}

	st := rep.add(Step{Name: "1. Tabela profiles"})
	var rows []map[string]any
	if err := r.b.Select(ctx, "profiles", supabase.Query{Limit: 1}, &rows); err != nil {
		st.Status, st.Summary = Fail, "Erro ao acessar tabela profiles"
		st.Details = append(st.Details, apiErrorLines(err)...)
		r.hintFor(rep, err)
	} else {
		st.Status, st.Summary = Pass, "Tabela profiles está acessível"
		if len(rows) == 0 {
			st.Details = append(st.Details, "Estrutura de exemplo: tabela vazia")
		} else {
			st.Details = append(st.Details, "Colunas: "+strings.Join(keys(rows[0]), ", "))
		}
	}

	st = rep.add(Step{Name: "2. Usuários registrados"})
	if users, err := r.b.AdminListUsers(ctx, 1, 50); err != nil {
		st.Status, st.Summary = Warn, "Não é possível listar usuários (requer permissões de admin)"
	} else {
		st.Status, st.Summary = Pass, fmt.Sprintf("Total de usuários: %d", len(users))
	}

	st = rep.add(Step{Name: "3. Serviço de autenticação"})
	if _, err := r.b.Settings(ctx); err != nil {
		st.Status, st.Summary = Fail, "Erro: "+message(err)
	} else {
		st.Status, st.Summary = Pass, "Serviço de autenticação está ativo"
	}

	rep.NextSteps = []string{
		"Se a tabela profiles não existe, você precisa criá-la",
		"Se RLS está habilitado mas sem políticas, usuários não conseguem acessar dados",
		"Verifique se a confirmação de email está habilitada nas configurações",
	}
	return rep
}

// Login signs in with the given credentials and fetches the caller's
// profile row with the new token.
func (r *Runner) Login(ctx context.Context, email, password string) *Report {
	rep := &Report{Title: "Teste de login"}
	st := rep.add(Step{Name: "Login"})
	sess, err := r.b.SignInWithPassword(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		st.Status, st.Summary = Fail, "Erro no login: "+message(err)
		st.Details = apiErrorLines(err)
		if strings.Contains(supabase.Message(err), supabase.MsgEmailNotConfirmed) {
			rep.recommend(recEmailConf)
		}
		return rep
	}
	st.Status, st.Summary = Pass, "Login bem-sucedido"
	if u := sess.User; u != nil {
		st.Details = append(st.Details,
			"User ID: "+u.ID,
			"Email: "+u.Email,
			"Email confirmado: "+yesNo(u.EmailConfirmedAt != nil),
		)
		r.profileStep(ctx, rep, sess.AccessToken, u.ID)
	}
	return rep
}

func (r *Runner) profileStep(ctx context.Context, rep *Report, token, id string) {
	st := rep.add(Step{Name: "Perfil"})
	rec, err := profile.NewRESTStore(r.b).Get(supabase.WithAccessToken(ctx, token), id)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		st.Status, st.Summary = Warn, "Perfil não encontrado"
	case err != nil:
		st.Status, st.Summary = Fail, "Erro ao buscar perfil: "+message(err)
		st.Details = apiErrorLines(err)
	default:
		st.Status, st.Summary = Pass, "Perfil encontrado"
		st.Details = append(st.Details,
			"Nome: "+profile.Str(rec.FullName),
			"Cidade: "+profile.Str(rec.City),
			"Função: "+profile.Str(rec.Role),
		)
	}
}

// CreateUser signs up an account.  When the backend returns a session
// (auto-confirm on) a profile row is inserted with the full name.
func (r *Runner) CreateUser(ctx context.Context, email, password, fullName string) *Report {
	rep := &Report{Title: "Criar usuário de teste"}
	st := rep.add(Step{Name: "Cadastro"})
	res, err := r.b.SignUp(ctx, strings.TrimSpace(email), strings.TrimSpace(password),
		map[string]any{"full_name": strings.TrimSpace(fullName)}, "")
	if err != nil {
		st.Status, st.Summary = Fail, "Erro ao criar usuário: "+message(err)
		st.Details = []string{
			"Possíveis causas:",
			"- Senha muito curta (mínimo 6 caracteres)",
			"- Email já registrado",
			"- Email inválido",
		}
		return rep
	}
	st.Status, st.Summary = Pass, "Usuário criado com sucesso"
	if u := res.User; u != nil {
		st.Details = append(st.Details,
			"User ID: "+u.ID,
			"Email: "+u.Email,
			"Confirmação necessária: "+yesNo(!u.Confirmed()),
		)
		if !u.Confirmed() {
			rep.NextSteps = []string{
				"Verifique sua caixa de email para confirmar o cadastro",
				"Se não receber o email, verifique a pasta de spam",
				"Confira as configurações de SMTP do backend",
			}
		}
	}
	if res.Session == nil || res.User == nil {
		return rep
	}

	st = rep.add(Step{Name: "Perfil"})
	ctx = supabase.WithAccessToken(ctx, res.Session.AccessToken)
	rec, err := profile.NewRESTStore(r.b).Insert(ctx, res.User.ID, profile.Changes{
		Name: profile.Ptr(strings.TrimSpace(fullName)),
	})
	if err != nil {
		st.Status, st.Summary = Fail, "Erro ao criar perfil: "+message(err)
		st.Details = apiErrorLines(err)
		return rep
	}
	st.Status, st.Summary = Pass, "Perfil criado"
	st.Details = append(st.Details, "ID: "+rec.ID)
	return rep
}

// Schema probes SchemaTables and the identity fields.
func (r *Runner) Schema(ctx context.Context, accessToken string) *Report {
	rep := &Report{Title: "Estrutura das tabelas"}
	for _, table := range SchemaTables {
		var rows []map[string]any
		err := r.b.Select(ctx, table, supabase.Query{Limit: 1}, &rows)
		switch {
		case supabase.HasCode(err, supabase.CodeUndefinedTable):
			// absent tables are expected and stay silent
		case err != nil:
			rep.add(Step{Name: table, Status: Warn, Summary: message(err)})
		case len(rows) == 0:
			rep.add(Step{Name: table, Status: Pass, Summary: "Tabela encontrada",
				Details: []string{"(Tabela vazia - estrutura não disponível via query)"}})
		default:
			rep.add(Step{Name: table, Status: Pass, Summary: "Tabela encontrada",
				Details: []string{"Estrutura: " + strings.Join(keys(rows[0]), ", ")}})
		}
	}

	st := rep.add(Step{Name: "auth.users"})
	var u *supabase.User
	if accessToken != "" {
		u, _ = r.b.GetUser(ctx, accessToken)
	}
	if u == nil {
		st.Status, st.Summary = Info, "Nenhum usuário logado - campos típicos:"
		st.Details = append([]string(nil), AuthUserFields...)
	} else {
		st.Status, st.Summary = Pass, "Usuário logado detectado"
		st.Details = []string{"ID: " + u.ID, "Email: " + u.Email}
	}
	return rep
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// message is the backend's message, else the transport error text.
func message(err error) string {
	if m := supabase.Message(err); m != "" {
		return m
	}
	return err.Error()
}

func (r *Runner) hintFor(rep *Report, err error) {
	switch {
	case supabase.HasCode(err, supabase.CodeUndefinedTable):
		rep.issue("Tabela profiles não existe")
		rep.recommend(recRunSQL)
	case supabase.HasCode(err, supabase.CodeInsufficientPrivilege):
		rep.issue("Sem permissão para acessar tabela profiles")
		rep.recommend(recRLS)
	}
}

func apiErrorLines(err error) []string {
	apiErr, ok := supabase.AsAPIError(err)
	if !ok {
		return []string{"Mensagem: " + err.Error()}
	}
	out := []string{fmt.Sprintf("Status: %d", apiErr.Status), "Mensagem: " + apiErr.Message}
	if apiErr.Code != "" {
		out = append(out, "Código: "+apiErr.Code)
	}
	if apiErr.Details != "" {
		out = append(out, "Detalhes: "+apiErr.Details)
	}
	if apiErr.Hint != "" {
		out = append(out, "Dica: "+apiErr.Hint)
	}
	return out
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
