package schema

import (
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	Clear()
	defer Clear()

	Register(&Schema{Name: "b.csv"})
	Register(&Schema{Name: "a.csv"})

	if Count() != 2 {
		t.Errorf("Count() = %d, want 2", Count())
	}
	names := Names()
	if len(names) != 2 || names[0] != "a.csv" || names[1] != "b.csv" {
		t.Errorf("Names() = %v, want sorted", names)
	}
	s, ok := Get("a.csv")
	if !ok || s.Source != "builtin" {
		t.Errorf("Get(a.csv) = %+v, %v", s, ok)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Clear()
	defer Clear()

	Register(&Schema{Name: "a.csv"})
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(&Schema{Name: "a.csv"})
}

func TestCatalog(t *testing.T) {
	Clear()
	defer Clear()

	Register(&Schema{Name: "a.csv", Source: "builtin"})
	Register(&Schema{Name: "b.csv", Source: "builtin"})
	c := NewCatalog(&Schema{Name: "a.csv", Source: "override.yaml"}, &Schema{Name: "c.csv"})

	s, err := c.Lookup("a.csv")
	if err != nil || s.Source != "override.yaml" {
		t.Errorf("Lookup(a.csv) = %+v, %v; want loaded schema", s, err)
	}
	if s, _ := c.Lookup("b.csv"); s == nil || s.Source != "builtin" {
		t.Errorf("Lookup(b.csv) should fall back to the registry")
	}
	if _, err := c.Lookup("zzz.csv"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("Lookup(zzz.csv) error = %v, want ErrUnknownDataset", err)
	}
	if got := len(c.All()); got != 3 {
		t.Errorf("len(All()) = %d, want 3", got)
	}
}
