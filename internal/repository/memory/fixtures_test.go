package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewmod/internal/domain"
)

const fixturesJSON = `{
  "users": [
    {"id": 1, "username": "alice", "email": "alice@example.com"},
    {"id": 9, "username": "mod_maria", "email": "maria@example.com", "role": "moderator"}
  ],
  "products": [
    {"id": 5, "name": "Desk Lamp", "category": "home"}
  ]
}`

func TestLoadFixturesFile_SeedsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(fixturesJSON), 0o600))

	f, err := LoadFixturesFile(path)
	require.NoError(t, err)

	s := NewStore()
	s.Seed(f)
	ctx := context.Background()

	ok, err := s.Users().IsModerator(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	alice, err := s.Users().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, alice.Role)

	review, err := s.Reviews().Create(ctx, 1, 5, 4, "Bright enough")
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewStatusPending, review.Status)

	added := s.AddUser(domain.User{Username: "late"})
	assert.Equal(t, int64(10), added.ID)
}

func TestDecodeFixtures_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"malformed", `{"users": [`, "decode fixtures"},
		{"unknown field", `{"users": [{"id": 1, "username": "a"}], "reviews": []}`, "unknown field"},
		{"no users", `{"users": [], "products": []}`, "at least one user"},
		{"zero user id", `{"users": [{"username": "a"}]}`, "users[0]: id must be positive"},
		{"duplicate user", `{"users": [{"id": 1, "username": "a"}, {"id": 1, "username": "b"}]}`, "users[1]: duplicate id 1"},
		{"missing username", `{"users": [{"id": 1}]}`, "username is required"},
		{"bad role", `{"users": [{"id": 1, "username": "a", "role": "admin"}]}`, `unknown role "admin"`},
		{"unnamed product", `{"users": [{"id": 1, "username": "a"}], "products": [{"id": 5}]}`, "products[0]: name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFixtures(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixturesFile_Missing(t *testing.T) {
	_, err := LoadFixturesFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "open fixtures")
}
