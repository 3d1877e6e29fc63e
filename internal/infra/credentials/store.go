package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/n0tnow/Wisentia-sub006/internal/infra"
)

const (
	ProviderGenerationService = "generation_service"
)

// Store reads and writes integration tokens kept in the database so the
// service token does not have to live in the environment of every deployment.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ServiceToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGenerationService)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.pool.QueryRow(ctx, `SELECT token FROM integration_tokens WHERE provider = $1;`, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetServiceToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("generation service token is required")
	}
	return s.upsert(ctx, ProviderGenerationService, token, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO integration_tokens (provider, token, properties)
VALUES ($1, $2, $3)
ON CONFLICT (provider) DO UPDATE SET token = EXCLUDED.token, properties = EXCLUDED.properties, updated_at = now();
`, provider, token, raw)
	return err
}
