// Package supabasetest runs an in-memory stand-in for the hosted backend so
// packages can exercise the real HTTP client in tests.  It implements the
// subset of /auth/v1 and /rest/v1 the app uses.
package supabasetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnonKey is the key the fake expects in the apikey header.
const AnonKey = "test-anon-key"

var signingKey = []byte("supabasetest-secret")

type account struct {
	user     map[string]any
	password string
}

// Server is an httptest.Server with backend state.  Fields may be tweaked
// between requests; all access is guarded by mu.
type Server struct {
	*httptest.Server

	mu sync.Mutex
	// AutoConfirm makes signup return a session and lets unconfirmed users
	// sign in.
	AutoConfirm bool
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration
	// Denied tables answer 42501; tables absent from Tables answer 42P01.
	Denied map[string]bool
	Tables map[string][]map[string]any

	accounts map[string]*account // by email
	refresh  map[string]string   // refresh token → user id
	calls    map[string]int
}

// New starts a server with an empty profiles table.
func New() *Server {
	s := &Server{
		TokenTTL: time.Hour,
		Denied:   map[string]bool{},
		Tables:   map[string][]map[string]any{"profiles": {}},
		accounts: map[string]*account{},
		refresh:  map[string]string{},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Calls returns how many times "METHOD /path" was hit.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// AddUser registers a confirmed account and returns its id.
func (s *Server) AddUser(email, password string, meta map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(email, password, meta, true)
}

// SetRows replaces the contents of table.
func (s *Server) SetRows(table string, rows ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables[table] = rows
}

// Rows returns a copy of table.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.Tables[table]))
	for _, r := range s.Tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// IssueToken signs an access token for userID that expires after ttl
// (negative ttl yields an already expired token).
func IssueToken(userID string, ttl time.Duration) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": "authenticated",
		"exp":  time.Now().Add(ttl).Unix(),
	})
	signed, _ := tok.SignedString(signingKey)
	return signed
}

func (s *Server) addUser(email, password string, meta map[string]any, confirmed bool) string {
	id := uuid.NewString()
	if meta == nil {
		meta = map[string]any{}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	u := map[string]any{
		"id":            id,
		"email":         email,
		"created_at":    now,
		"updated_at":    now,
		"user_metadata": meta,
		"app_metadata":  map[string]any{"provider": "email"},
	}
	if confirmed {
		u["email_confirmed_at"] = now
		u["confirmed_at"] = now
	}
	s.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	return id
}

/*──────────────────────────── dispatch ─────────────────────────────────────*/

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[r.Method+" "+r.URL.Path]++

	if r.Header.Get("apikey") != AnonKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/auth/v1/"):
		s.serveAuth(w, r, strings.TrimPrefix(r.URL.Path, "/auth/v1"))
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		s.serveREST(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveAuth(w http.ResponseWriter, r *http.Request, path string) {
	var body map[string]any
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch r.Method + " " + path {
	case "POST /signup":
		email, _ := body["email"].(string)
		password, _ := body["password"].(string)
		if _, exists := s.accounts[strings.ToLower(email)]; exists {
			authError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
			return
		}
		if len(password) < 6 {
			authError(w, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
			return
		}
		meta, _ := body["data"].(map[string]any)
		id := s.addUser(email, password, meta, s.AutoConfirm)
		acct := s.accounts[strings.ToLower(email)]
		if s.AutoConfirm {
			writeJSON(w, http.StatusOK, s.session(id, acct.user))
			return
		}
		writeJSON(w, http.StatusOK, acct.user)

	case "POST /token":
		switch r.URL.Query().Get("grant_type") {
		case "password":
			email, _ := body["email"].(string)
			password, _ := body["password"].(string)
			acct, ok := s.accounts[strings.ToLower(email)]
			if !ok || acct.password != password {
				authError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
				return
			}
			if _, confirmed := acct.user["email_confirmed_at"]; !confirmed && !s.AutoConfirm {
				authError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
				return
			}
			writeJSON(w, http.StatusOK, s.session(acct.user["id"].(string), acct.user))
		case "refresh_token":
			rt, _ := body["refresh_token"].(string)
			id, ok := s.refresh[rt]
			if !ok {
				authError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
				return
			}
			delete(s.refresh, rt)
			writeJSON(w, http.StatusOK, s.session(id, s.userByID(id)))
		default:
			authError(w, http.StatusBadRequest, "validation_failed", "unsupported grant_type")
		}

	case "POST /logout":
		if _, ok := s.authUser(r); !ok {
			authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case "POST /recover":
		writeJSON(w, http.StatusOK, map[string]any{})

	case "GET /user":
		u, ok := s.authUser(r)
		if !ok {
			authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
			return
		}
		writeJSON(w, http.StatusOK, u)

	case "PUT /user":
		u, ok := s.authUser(r)
		if !ok {
			authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
			return
		}
		if data, ok := body["data"].(map[string]any); ok {
			meta, _ := u["user_metadata"].(map[string]any)
			if meta == nil {
				meta = map[string]any{}
			}
			for k, v := range data {
				meta[k] = v
			}
			u["user_metadata"] = meta
			u["updated_at"] = time.Now().UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, u)

	case "GET /settings":
		writeJSON(w, http.StatusOK, map[string]any{
			"external":           map[string]any{"email": true},
			"mailer_autoconfirm": s.AutoConfirm,
		})

	case "GET /admin/users":
		authError(w, http.StatusForbidden, "not_admin", "User not allowed")

	default:
		authError(w, http.StatusNotFound, "not_found", "not found")
	}
}

func (s *Server) session(id string, user map[string]any) map[string]any {
	rt := uuid.NewString()
	s.refresh[rt] = id
	return map[string]any{
		"access_token":  IssueToken(id, s.TokenTTL),
		"refresh_token": rt,
		"token_type":    "bearer",
		"expires_in":    int64(s.TokenTTL.Seconds()),
		"expires_at":    time.Now().Add(s.TokenTTL).Unix(),
		"user":          user,
	}
}

func (s *Server) userByID(id string) map[string]any {
	for _, a := range s.accounts {
		if a.user["id"] == id {
			return a.user
		}
	}
	return nil
}

// authUser resolves the bearer token to a user.  The anon key is not a user.
func (s *Server) authUser(r *http.Request) (map[string]any, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" || raw == AnonKey {
		return nil, false
	}
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, false
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return nil, false
	}
	u := s.userByID(sub)
	return u, u != nil
}

/*──────────────────────────── REST ─────────────────────────────────────────*/

func (s *Server) serveREST(w http.ResponseWriter, r *http.Request, table string) {
	if s.Denied[table] {
		restError(w, http.StatusForbidden, "42501", fmt.Sprintf("permission denied for table %s", table))
		return
	}
	rows, ok := s.Tables[table]
	if !ok {
		restError(w, http.StatusNotFound, "42P01", fmt.Sprintf("relation \"public.%s\" does not exist", table))
		return
	}
	q := r.URL.Query()
	prefer := r.Header.Get("Prefer")

	switch r.Method {
	case http.MethodGet:
		matched := filterRows(rows, q)
		total := len(matched)
		sortRows(matched, q.Get("order"))
		if lim, err := strconv.Atoi(q.Get("limit")); err == nil && lim < len(matched) {
			matched = matched[:lim]
		}
		out := project(matched, q.Get("select"))
		if strings.Contains(prefer, "count=exact") {
			if len(out) == 0 {
				w.Header().Set("Content-Range", fmt.Sprintf("*/%d", total))
			} else {
				w.Header().Set("Content-Range", fmt.Sprintf("0-%d/%d", len(out)-1, total))
			}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPatch:
		var changes map[string]any
		if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
			restError(w, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
			return
		}
		var updated []map[string]any
		for _, row := range rows {
			if matches(row, q) {
				for k, v := range changes {
					row[k] = v
				}
				row["updated_at"] = time.Now().UTC().Format(time.RFC3339)
				updated = append(updated, copyRow(row))
			}
		}
		s.respondWrite(w, prefer, updated)

	case http.MethodPost:
		var payload any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			restError(w, http.StatusBadRequest, "PGRST102", "Empty or invalid json")
			return
		}
		var incoming []map[string]any
		switch p := payload.(type) {
		case map[string]any:
			incoming = []map[string]any{p}
		case []any:
			for _, e := range p {
				if m, ok := e.(map[string]any); ok {
					incoming = append(incoming, m)
				}
			}
		}
		merge := strings.Contains(prefer, "resolution=merge-duplicates")
		var written []map[string]any
		for _, in := range incoming {
			idx := indexByID(s.Tables[table], in["id"])
			now := time.Now().UTC().Format(time.RFC3339)
			switch {
			case idx >= 0 && !merge:
				restError(w, http.StatusConflict, "23505",
					fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", table))
				return
			case idx >= 0:
				row := s.Tables[table][idx]
				for k, v := range in {
					row[k] = v
				}
				row["updated_at"] = now
				written = append(written, copyRow(row))
			default:
				row := copyRow(in)
				if _, ok := row["created_at"]; !ok {
					row["created_at"] = now
				}
				row["updated_at"] = now
				s.Tables[table] = append(s.Tables[table], row)
				written = append(written, copyRow(row))
			}
		}
		s.respondWrite(w, prefer, written)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) respondWrite(w http.ResponseWriter, prefer string, rows []map[string]any) {
	if strings.Contains(prefer, "return=representation") {
		if rows == nil {
			rows = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func filterRows(rows []map[string]any, q map[string][]string) []map[string]any {
	var out []map[string]any
	for _, r := range rows {
		if matches(r, q) {
			out = append(out, copyRow(r))
		}
	}
	return out
}

var reserved = map[string]bool{"select": true, "order": true, "limit": true, "offset": true, "on_conflict": true}

func matches(row map[string]any, q map[string][]string) bool {
	for col, vals := range q {
		if reserved[col] {
			continue
		}
		for _, v := range vals {
			op, val, _ := strings.Cut(v, ".")
			if op == "eq" && fmt.Sprint(row[col]) != val {
				return false
			}
		}
	}
	return true
}

func sortRows(rows []map[string]any, order string) {
	if order == "" {
		return
	}
	col, dir, _ := strings.Cut(order, ".")
	desc := strings.HasPrefix(dir, "desc")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
		if rows[i][col] == nil {
			a = ""
		}
		if rows[j][col] == nil {
			b = ""
		}
		if desc {
			return a > b
		}
		return a < b
	})
}

func project(rows []map[string]any, sel string) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	if sel == "" || sel == "*" {
		return append(out, rows...)
	}
	cols := strings.Split(sel, ",")
	for _, r := range rows {
		p := map[string]any{}
		for _, c := range cols {
			c = strings.TrimSpace(c)
			p[c] = r[c]
		}
		out = append(out, p)
	}
	return out
}

func indexByID(rows []map[string]any, id any) int {
	if id == nil {
		return -1
	}
	for i, r := range rows {
		if fmt.Sprint(r["id"]) == fmt.Sprint(id) {
			return i
		}
	}
	return -1
}

func copyRow(r map[string]any) map[string]any {
	c := make(map[string]any, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func authError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "error_code": code, "msg": msg})
}

func restError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"code": code, "message": msg, "details": nil, "hint": nil})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
