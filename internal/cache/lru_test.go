package cache

import "testing"

func TestLRUEvictsLeastRecent(t *testing.T) {
	var evicted []string
	c := New[string, int](2)
	c.OnEvict = func(k string, _ int) { evicted = append(evicted, k) }

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("a missing")
	}
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("evicted = %v", evicted)
	}
}

func TestLRUUpdateAndPurge(t *testing.T) {
	c := New[string, int](1)
	c.Add("k", 1)
	c.Add("k", 2)
	if v, _ := c.Get("k"); v != 2 {
		t.Fatalf("k = %v", v)
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatal("purge left entries")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("k survived purge")
	}
}
