package auth

import (
	"context"
	"testing"
)

func TestWithUserRoundTrip(t *testing.T) {
	ctx := WithUser(context.Background(), Principal{ID: "u1", Roles: []string{"pilot"}})
	p, ok := FromContext(ctx)
	if !ok || p.ID != "u1" {
		t.Fatalf("FromContext = %+v, %v", p, ok)
	}
	if !p.HasRole("admin", "pilot") {
		t.Fatal("expected pilot role")
	}
	if p.HasRole("admin") {
		t.Fatal("unexpected admin role")
	}
}

func TestFromContextEmpty(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal")
	}
	if _, ok := FromContext(WithUser(context.Background(), Principal{})); ok {
		t.Fatal("blank principal must not count as signed in")
	}
}
