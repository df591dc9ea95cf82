package routing

import (
	"strings"
	"testing"
)

func TestMakeSlug(t *testing.T) {
	cases := map[string]string{
		"Reunião de alinhamento": "reuniao-de-alinhamento",
		"Planejamento de Sprint": "planejamento-de-sprint",
		"  Ação!! Crítica  ":     "acao-critica",
		"🚀🚀":                     "item",
		"":                       "item",
		"Turma 2024 / Naval":     "turma-2024-naval",
	}
	for in, want := range cases {
		if got := MakeSlug(in); got != want {
			t.Errorf("MakeSlug(%q) = %q, want %q", in, got, want)
		}
	}

	long := MakeSlug(strings.Repeat("ab ", 60))
	if len(long) > 100 || strings.HasSuffix(long, "-") {
		t.Errorf("long slug not truncated cleanly: %q", long)
	}
}

func TestBuildPath(t *testing.T) {
	cases := []struct{ parent, slug, want string }{
		{"", "", "/"},
		{"/agenda/", "", "/agenda"},
		{"", "e1", "/e1"},
		{"agenda", "/e1/", "/agenda/e1"},
	}
	for _, c := range cases {
		if got := BuildPath(c.parent, c.slug); got != c.want {
			t.Errorf("BuildPath(%q,%q) = %q, want %q", c.parent, c.slug, got, c.want)
		}
	}
}
