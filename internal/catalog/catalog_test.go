package catalog

import (
	"errors"
	"strings"
	"testing"

	"city-quiz-service/internal/domain"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	if c.Len() != domain.MaxQuestions {
		t.Fatalf("expected %d cities, got %d", domain.MaxQuestions, c.Len())
	}
	if c.ID() != DefaultID {
		t.Fatalf("expected id %q, got %q", DefaultID, c.ID())
	}
	city, ok := c.Lookup("Niš")
	if !ok {
		t.Fatalf("expected Niš in catalog")
	}
	if city.MapRef != "nis" {
		t.Fatalf("expected map ref nis, got %q", city.MapRef)
	}
}

func TestLookupReturnsCatalogStorage(t *testing.T) {
	c, err := New("t", []domain.City{{Name: "A"}, {Name: "B"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a, _ := c.Lookup("A")
	if a != c.At(0) || a != c.All()[0] {
		t.Fatalf("expected lookup, At and All to share the same record")
	}
	if _, ok := c.Lookup("a"); ok {
		t.Fatalf("lookup must be exact")
	}
}

func TestAllKeepsOrder(t *testing.T) {
	c, err := Decode("t", strings.NewReader(`[{"name":"Z"},{"name":"A"},{"name":"M"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Z", "A", "M"}
	for i, city := range c.All() {
		if city.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], city.Name)
		}
	}
}

func TestNewRejectsBadNames(t *testing.T) {
	tests := []struct {
		name   string
		cities []domain.City
	}{
		{name: "empty name", cities: []domain.City{{Name: "A"}, {Name: ""}}},
		{name: "duplicate", cities: []domain.City{{Name: "A"}, {Name: "A"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", tt.cities)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	in := []domain.City{{Name: "A"}}
	c, err := New("t", in)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	in[0].Name = "B"
	if c.At(0).Name != "A" {
		t.Fatalf("catalog must not alias caller slice")
	}
}
