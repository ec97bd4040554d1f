package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// AnswerRepo caches normalized AI answers keyed by (kind, key_hash, engine, model).
type AnswerRepo struct{ DB *sql.DB }

func NewAnswerRepo(db *sql.DB) *AnswerRepo { return &AnswerRepo{DB: db} }

// Find returns the cached answer. If maxAge > 0 and the row is older,
// ErrNotFound is returned so the caller asks the model again.
func (r *AnswerRepo) Find(ctx context.Context, kind, keyHash, engine, model string, maxAge time.Duration) (string, error) {
	const q = `select answer, created_at
	           from ai_answers
	           where kind=$1 and key_hash=$2 and engine=$3 and model=$4`
	var (
		answer string
		ts     time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, kind, keyHash, engine, model).Scan(&answer, &ts); err != nil {
		return "", err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return "", ErrNotFound
	}
	return answer, nil
}

// Upsert stores or refreshes an answer.
func (r *AnswerRepo) Upsert(ctx context.Context, kind, keyHash, engine, model, answer string) error {
	const q = `
insert into ai_answers(kind, key_hash, engine, model, answer)
values ($1,$2,$3,$4,$5)
on conflict (kind, key_hash, engine, model)
do update set answer=excluded.answer, created_at=now()`
	_, err := r.DB.ExecContext(ctx, q, kind, keyHash, engine, model, answer)
	return err
}

// PurgeOlderThan deletes stale answers so the table does not grow forever.
func (r *AnswerRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from ai_answers where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
