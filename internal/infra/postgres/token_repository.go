package postgres

import (
	"context"
	"fmt"
	"time"
)

const (
	tokensDDL = `CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		rate_limit INTEGER NOT NULL DEFAULT 60,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		comment TEXT
	);`
	tokensIndexDDL = `CREATE INDEX IF NOT EXISTS idx_tokens_created_at ON tokens (created_at);`
	tokensQuery    = `SELECT token, rate_limit FROM tokens;`
)

// TokenRepository loads API tokens and their per-interval request limits.
type TokenRepository struct {
	DB  *DB
	DSN string
}

func NewTokenRepository(db *DB, dsn string) *TokenRepository {
	return &TokenRepository{DB: db, DSN: dsn}
}

// LoadTokens creates the tokens table when missing and returns token → limit.
func (r *TokenRepository) LoadTokens(ctx context.Context) (map[string]int, error) {
	db, err := r.DB.Get(r.DSN)
	if err != nil {
		return nil, fmt.Errorf("tokens: connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, tokensDDL); err != nil {
		return nil, fmt.Errorf("tokens: schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, tokensIndexDDL); err != nil {
		return nil, fmt.Errorf("tokens: index: %w", err)
	}

	rows, err := db.QueryContext(ctx, tokensQuery)
	if err != nil {
		return nil, fmt.Errorf("tokens: query failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var token string
		var limit int
		if err := rows.Scan(&token, &limit); err != nil {
			return nil, fmt.Errorf("tokens: scan: %w", err)
		}
		out[token] = limit
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tokens: rows: %w", err)
	}
	return out, nil
}
