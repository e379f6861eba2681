package repo

import (
	"context"
	"fmt"
	"time"

	"flyergen/internal/domain"
	"flyergen/internal/infra"
	"flyergen/internal/sqlinline"
)

// FlyerAssetRepositoryPG implements domain.AssetRepository using PostgreSQL.
type FlyerAssetRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewFlyerAssetRepository constructs a new asset repository instance.
func NewFlyerAssetRepository(sql infra.SQLExecutor) *FlyerAssetRepositoryPG {
	return &FlyerAssetRepositoryPG{sql: sql}
}

// Save persists one generated asset and fills in its creation timestamp.
func (r *FlyerAssetRepositoryPG) Save(ctx context.Context, asset *domain.FlyerAsset) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertFlyerAsset,
		asset.ID,
		asset.UserID,
		asset.StorageKey,
		asset.MIME,
		asset.Width,
		asset.Height,
		asset.Aspect,
		asset.Provider,
		asset.Seed,
		asset.CostUSD,
		asset.Duration.Milliseconds(),
	)
	if err := row.Scan(&asset.CreatedAt); err != nil {
		return fmt.Errorf("repo: insert flyer asset: %w", err)
	}
	return nil
}

// GetByID fetches one asset or domain.ErrNotFound.
func (r *FlyerAssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.FlyerAsset, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectFlyerAssetByID, id)
	asset, err := scanFlyerAsset(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: select flyer asset: %w", err)
	}
	return asset, nil
}

// ListByUser returns the user's assets newest first.
func (r *FlyerAssetRepositoryPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.FlyerAsset, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListFlyerAssetsByUser, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repo: list flyer assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.FlyerAsset
	for rows.Next() {
		asset, err := scanFlyerAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlyerAsset(row scanner) (*domain.FlyerAsset, error) {
	var (
		asset      domain.FlyerAsset
		durationMS int64
	)
	if err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&asset.StorageKey,
		&asset.MIME,
		&asset.Width,
		&asset.Height,
		&asset.Aspect,
		&asset.Provider,
		&asset.Seed,
		&asset.CostUSD,
		&durationMS,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	asset.Duration = time.Duration(durationMS) * time.Millisecond
	return &asset, nil
}

var _ domain.AssetRepository = (*FlyerAssetRepositoryPG)(nil)
