package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"flyergen/internal/infra"
	"flyergen/internal/sqlinline"
)

// Provider slugs for tokens persisted in integration_tokens.
const (
	ProviderIdeogram    = "ideogram"
	ProviderFal         = "fal"
	ProviderHuggingFace = "huggingface"
	ProviderStability   = "stability"
)

// Store reads and writes per-provider API tokens. A token stored here takes
// precedence over the matching environment variable, so keys can be rotated
// without a redeploy.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored token for a provider, or "" when none is set.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetToken stores or replaces the token for a provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	return s.upsert(ctx, provider, token, nil)
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
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
