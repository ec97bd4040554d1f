package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-planner/api/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, profile map[string]any) (store.User, error)
	FindByUsername(ctx context.Context, username string) (store.User, error)
}

type Service struct {
	users UserStore
	log   *zap.Logger
	cost  int
}

func New(users UserStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, log: log.Named("auth"), cost: bcrypt.DefaultCost}
}

// Register validates the credentials and stores a new user with a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, password string) (store.User, error) {
	username = strings.TrimSpace(username)
	if err := validate(username, password); err != nil {
		return store.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, username, string(hash), nil)
	if err != nil {
		return store.User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// Login checks the password. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("password mismatch", zap.String("user_id", u.ID.String()))
		return store.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func validate(username, password string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must match %s", ErrInvalidInput, usernameRe.String())
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}
