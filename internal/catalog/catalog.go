// Package catalog holds the immutable, ordered set of cities a quiz draws from.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"

	"city-quiz-service/internal/domain"
)

// DefaultID names the embedded catalog.
const DefaultID = "srbija"

//go:embed data/cities.json
var data embed.FS

// Catalog is safe for concurrent reads. It is never mutated after New.
type Catalog struct {
	id     string
	cities []domain.City
	byName map[string]int
}

// New copies cities into a catalog. Names must be non-empty and unique.
func New(id string, cities []domain.City) (*Catalog, error) {
	c := &Catalog{
		id:     id,
		cities: make([]domain.City, len(cities)),
		byName: make(map[string]int, len(cities)),
	}
	copy(c.cities, cities)
	for i, city := range c.cities {
		if city.Name == "" {
			return nil, fmt.Errorf("city at position %d has no name: %w", i, domain.ErrInvalidArgument)
		}
		if _, dup := c.byName[city.Name]; dup {
			return nil, fmt.Errorf("duplicate city %q: %w", city.Name, domain.ErrInvalidArgument)
		}
		c.byName[city.Name] = i
	}
	return c, nil
}

// Decode reads a JSON array of cities.
func Decode(id string, r io.Reader) (*Catalog, error) {
	var cities []domain.City
	if err := json.NewDecoder(r).Decode(&cities); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", id, err)
	}
	return New(id, cities)
}

// Embedded returns the catalog packaged with the binary.
func Embedded() (*Catalog, error) {
	f, err := data.Open("data/cities.json")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(DefaultID, f)
}

func (c *Catalog) ID() string { return c.id }

func (c *Catalog) Len() int { return len(c.cities) }

// At returns the city at index i. The pointer refers to catalog storage.
func (c *Catalog) At(i int) *domain.City {
	return &c.cities[i]
}

// Lookup finds a city by its exact name.
func (c *Catalog) Lookup(name string) (*domain.City, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.cities[i], true
}

// All returns the cities in catalog order.
func (c *Catalog) All() []*domain.City {
	out := make([]*domain.City, len(c.cities))
	for i := range c.cities {
		out[i] = &c.cities[i]
	}
	return out
}

// Cities returns a copy of the records, for serialization.
func (c *Catalog) Cities() []domain.City {
	out := make([]domain.City, len(c.cities))
	copy(out, c.cities)
	return out
}
