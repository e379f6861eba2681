package repo

import (
	"context"
	"fmt"

	"flyergen/internal/domain"
	"flyergen/internal/infra"
	"flyergen/internal/sqlinline"
)

// FragmentRepositoryPG implements domain.FragmentRepository using PostgreSQL.
type FragmentRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewFragmentRepository constructs a new fragment repository instance.
func NewFragmentRepository(sql infra.SQLExecutor) *FragmentRepositoryPG {
	return &FragmentRepositoryPG{sql: sql}
}

// FindActive returns the highest-version active fragment for the category and
// subcategory, or nil when the store has no match.
func (r *FragmentRepositoryPG) FindActive(ctx context.Context, category, subcategory string) (*domain.PromptFragment, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectActiveFragment, category, subcategory)
	var fragment domain.PromptFragment
	if err := row.Scan(&fragment.ID, &fragment.Category, &fragment.Subcategory, &fragment.Content, &fragment.IsActive, &fragment.Version); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("repo: find active fragment: %w", err)
	}
	return &fragment, nil
}

// ListByCategory returns every fragment in the category, newest version first
// per subcategory. Used by the debug read endpoint.
func (r *FragmentRepositoryPG) ListByCategory(ctx context.Context, category string) ([]domain.PromptFragment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListFragmentsByCategory, category)
	if err != nil {
		return nil, fmt.Errorf("repo: list fragments: %w", err)
	}
	defer rows.Close()

	var fragments []domain.PromptFragment
	for rows.Next() {
		var fragment domain.PromptFragment
		if err := rows.Scan(&fragment.ID, &fragment.Category, &fragment.Subcategory, &fragment.Content, &fragment.IsActive, &fragment.Version); err != nil {
			return nil, err
		}
		fragments = append(fragments, fragment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

var _ domain.FragmentRepository = (*FragmentRepositoryPG)(nil)
