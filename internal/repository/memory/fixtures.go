package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/utafrali/reviewmod/internal/domain"
)

// Fixtures lists the users and products a memory store starts with. Reviews
// and moderation actions are always created through the API.
type Fixtures struct {
	Users    []domain.User    `json:"users"`
	Products []domain.Product `json:"products"`
}

// Validate checks ids, names and roles before anything is loaded.
func (f *Fixtures) Validate() error {
	if len(f.Users) == 0 {
		return fmt.Errorf("fixtures must define at least one user")
	}
	seen := make(map[int64]struct{}, len(f.Users))
	for i, u := range f.Users {
		if u.ID <= 0 {
			return fmt.Errorf("users[%d]: id must be positive", i)
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("users[%d]: duplicate id %d", i, u.ID)
		}
		seen[u.ID] = struct{}{}
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if u.Role != "" && !u.Role.IsValid() {
			return fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
	}

	seen = make(map[int64]struct{}, len(f.Products))
	for i, p := range f.Products {
		if p.ID <= 0 {
			return fmt.Errorf("products[%d]: id must be positive", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("products[%d]: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Name == "" {
			return fmt.Errorf("products[%d]: name is required", i)
		}
	}
	return nil
}

// DecodeFixtures reads and validates a JSON fixtures document.
func DecodeFixtures(r io.Reader) (*Fixtures, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var f Fixtures
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}
	return &f, nil
}

// LoadFixturesFile decodes the fixtures file at path.
func LoadFixturesFile(path string) (*Fixtures, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer func() { _ = file.Close() }()
	return DecodeFixtures(file)
}

// Seed adds every user and product in f to the store.
func (s *Store) Seed(f *Fixtures) {
	for _, u := range f.Users {
		s.AddUser(u)
	}
	for _, p := range f.Products {
		s.AddProduct(p)
	}
}
