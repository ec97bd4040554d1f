package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUsernameTaken = errors.New("username already taken")

const uniqueViolation = "23505"

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Profile      map[string]any
	CreatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user document. Usernames are unique case-insensitively.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string, profile map[string]any) (User, error) {
	if profile == nil {
		profile = map[string]any{}
	}
	js, err := json.Marshal(profile)
	if err != nil {
		return User{}, fmt.Errorf("marshal profile: %w", err)
	}
	u := User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Profile:      profile,
	}
	const q = `
insert into users (id, username, password_hash, profile)
values ($1, $2, $3, $4)
returning created_at`
	err = r.DB.QueryRowContext(ctx, q, u.ID, u.Username, u.PasswordHash, js).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// FindByUsername returns ErrNotFound when no user matches.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	const q = `
select id, username, password_hash, profile, created_at
from users
where lower(username) = $1`
	var (
		u  User
		js []byte
	)
	err := r.DB.QueryRowContext(ctx, q, strings.ToLower(username)).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &js, &u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	if err := json.Unmarshal(js, &u.Profile); err != nil {
		// a broken profile document must not lock the user out
		u.Profile = map[string]any{}
	}
	return u, nil
}
