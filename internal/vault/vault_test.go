package vault

import (
	"context"
	"testing"
)

func TestSplitMount(t *testing.T) {
	cases := map[string][2]string{
		"secret/escalado/prod": {"secret", "escalado/prod"},
		"secret":               {"secret", ""},
		"":                     {"", ""},
	}
	for in, want := range cases {
		m, r := splitMount(in)
		if m != want[0] || r != want[1] {
			t.Fatalf("splitMount(%q) = (%q, %q), want %v", in, m, r, want)
		}
	}
}

func TestGetKV_RejectsEmpty(t *testing.T) {
	c := &Client{cache: map[string]cached{}}
	if _, err := c.GetKV(context.Background(), "", "k", 0); err == nil {
		t.Fatal("expected error for empty path")
	}
}
