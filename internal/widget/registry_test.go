package widget

import "testing"

type stub struct{ id string }

func (s stub) ID() string { return s.id }
func (s stub) Render(any, map[string]any) (string, int, error) {
	return "<p>" + s.id + "</p>", 0, nil
}

func TestRegisterLookup(t *testing.T) {
	Register(stub{"test/b"})
	Register(stub{"test/a"})

	if Lookup("test/a") == nil {
		t.Fatal("test/a not registered")
	}
	if Lookup("test/missing") != nil {
		t.Fatal("unexpected widget")
	}

	keys := Keys()
	ia, ib := -1, -1
	for i, k := range keys {
		switch k {
		case "test/a":
			ia = i
		case "test/b":
			ib = i
		}
	}
	if ia < 0 || ib < 0 || ia > ib {
		t.Fatalf("keys not sorted: %v", keys)
	}
}
