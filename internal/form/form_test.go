package form

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toescalado/escalado/internal/widget"
)

const testForm = `
id: test/signup
title: Sign up
fields:
  - name: email
    label: Email
    type: email
    required: true
  - name: password
    label: Password
    type: password
    required: true
  - name: confirm
    label: Confirm
    type: password
    match: password
    error: Passwords differ
  - name: people
    label: People
    type: multiselect
  - name: terms
    label: I agree
    type: checkbox
actions:
  - type: log
    message: test submitted
    redact: [password, confirm]
`

func setup(t *testing.T) {
	t.Helper()
	SetTiming(0, time.Hour)
	require.NoError(t, RegisterFS(fstest.MapFS{
		"forms/signup.yaml": {Data: []byte(testForm)},
	}))
}

func validPost(t *testing.T) url.Values {
	t.Helper()
	tok, err := GenerateToken()
	require.NoError(t, err)
	return url.Values{
		"csrf_token": {tok},
		"render_ts":  {strconv.FormatInt(time.Now().Add(-5*time.Second).UnixMicro(), 10)},
	}
}

func TestRegisterAndRender(t *testing.T) {
	setup(t)
	fd, ok := GetFormDef("test/signup")
	require.True(t, ok)
	assert.Len(t, fd.Fields, 5)
	assert.NotNil(t, widget.Lookup("test/signup"))

	out, err := RenderForm("test/signup", RenderOptions{
		Prefill:  map[string]string{"email": "a@b.c", "password": "secret"},
		Choices:  map[string][]Choice{"people": {{Value: "u1", Label: "Ana"}}},
		Selected: map[string][]string{"people": {"u1"}},
		Errors:   map[string]string{"": "Falhou", "email": "bad"},
	})
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, `name="csrf_token"`)
	assert.Contains(t, html, `value="a@b.c"`)
	assert.NotContains(t, html, `value="secret"`)
	assert.Contains(t, html, `<option value="u1" selected>Ana</option>`)
	assert.Contains(t, html, `Falhou`)
	assert.Contains(t, html, `has-error`)
}

func TestValidateForm(t *testing.T) {
	setup(t)

	post := validPost(t)
	post.Set("email", " pilot@example.com ")
	post.Set("password", "secret1")
	post.Set("confirm", "secret1")
	post["people"] = []string{"u1", " ", "u2"}
	post.Set("terms", "on")

	clean, errs := ValidateForm("test/signup", post)
	require.Empty(t, errs)
	assert.Equal(t, "pilot@example.com", String(clean, "email"))
	assert.Equal(t, []string{"u1", "u2"}, Strings(clean, "people"))
	assert.True(t, Bool(clean, "terms"))
}

func TestValidateFormErrors(t *testing.T) {
	setup(t)

	post := validPost(t)
	post.Set("email", "not-an-email")
	post.Set("password", "abc")
	post.Set("confirm", "abd")

	_, errs := ValidateForm("test/signup", post)
	m := ErrorMap(errs)
	assert.Equal(t, "Invalid input.", m["email"])
	assert.Equal(t, "Passwords differ", m["confirm"])

	_, errs = ValidateForm("test/signup", url.Values{"csrf_token": {"forged"}})
	require.Len(t, errs, 1)
	assert.Empty(t, errs[0].Name)
}

func TestTimingWindow(t *testing.T) {
	setup(t)
	SetTiming(time.Minute, time.Hour)
	defer SetTiming(0, time.Hour)

	post := validPost(t)
	_, errs := ValidateForm("test/signup", post)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "too quickly")
}

func TestHandleSubmit(t *testing.T) {
	setup(t)
	post := validPost(t)
	post.Set("email", "x@y.z")

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(post.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err := HandleSubmit("test/signup", r)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "password", FieldErrors(err)[0].Name)
}

func TestParseFormDefRejects(t *testing.T) {
	cases := map[string]string{
		"no id":         "fields: [{name: a, label: A, type: text}]",
		"both":          "id: x\nfields: [{name: a, label: A, type: text}]\nsteps: [{fields: [{name: b, label: B, type: text}]}]",
		"bad type":      "id: x\nfields: [{name: a, label: A, type: color}]",
		"dup":           "id: x\nfields: [{name: a, label: A, type: text}, {name: a, label: B, type: text}]",
		"unknown match": "id: x\nfields: [{name: a, label: A, type: text, match: b}]",
		"bad min/max":   "id: x\nfields: [{name: a, label: A, type: text, minlength: 5, maxlength: 2}]",
	}
	for name, src := range cases {
		_, err := ParseFormDef([]byte(src), name)
		assert.Error(t, err, name)
	}
}

func TestCSRFToken(t *testing.T) {
	SetSecret(strings.Repeat("k", 32))
	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.True(t, VerifyToken(tok))
	b := []byte(tok)
	if b[30] == 'A' {
		b[30] = 'B'
	} else {
		b[30] = 'A'
	}
	assert.False(t, VerifyToken(string(b)))
	assert.False(t, VerifyToken(""))
}
