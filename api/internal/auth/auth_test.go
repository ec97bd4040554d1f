package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"travel-planner/api/internal/store"
)

type memUsers struct {
	byName map[string]store.User
	err    error
}

func newMemUsers() *memUsers { return &memUsers{byName: map[string]store.User{}} }

func (m *memUsers) Create(_ context.Context, username, hash string, profile map[string]any) (store.User, error) {
	key := strings.ToLower(username)
	if _, ok := m.byName[key]; ok {
		return store.User{}, store.ErrUsernameTaken
	}
	u := store.User{ID: uuid.New(), Username: username, PasswordHash: hash, Profile: profile}
	m.byName[key] = u
	return u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (store.User, error) {
	if m.err != nil {
		return store.User{}, m.err
	}
	u, ok := m.byName[strings.ToLower(username)]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func newTestService(users UserStore) *Service {
	s := New(users, nil)
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(newMemUsers())
	ctx := context.Background()

	u, err := s.Register(ctx, "  wanderer ", "correct horse")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "wanderer" || u.PasswordHash == "correct horse" {
		t.Fatalf("unexpected stored user %+v", u)
	}

	got, err := s.Login(ctx, "Wanderer", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("expected same user id")
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(newMemUsers())
	cases := []struct{ user, pass string }{
		{"ab", "longenough"},
		{"has space", "longenough"},
		{"valid_name", "short"},
		{"valid_name", strings.Repeat("x", 73)},
	}
	for _, c := range cases {
		if _, err := s.Register(context.Background(), c.user, c.pass); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Register(%q, %q): expected ErrInvalidInput, got %v", c.user, c.pass, err)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestService(newMemUsers())
	ctx := context.Background()
	if _, err := s.Register(ctx, "nomad", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := s.Register(ctx, "NOMAD", "password2"); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	users := newMemUsers()
	s := newTestService(users)
	ctx := context.Background()
	if _, err := s.Register(ctx, "nomad", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, c := range []struct{ user, pass string }{
		{"nomad", "wrong-password"},
		{"ghost", "password1"},
		{"", "password1"},
		{"nomad", ""},
	} {
		if _, err := s.Login(ctx, c.user, c.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Login(%q, %q): expected ErrInvalidCredentials, got %v", c.user, c.pass, err)
		}
	}

	users.err = errors.New("connection refused")
	if _, err := s.Login(ctx, "nomad", "password1"); err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}
