package domain

import "context"

// FragmentRepository reads prompt fragments from the persisted store.
type FragmentRepository interface {
	// FindActive returns the active fragment with the highest version for the
	// given category and subcategory, or nil when none exists.
	FindActive(ctx context.Context, category, subcategory string) (*PromptFragment, error)
}

// AssetRepository handles persistence for generated flyer assets.
type AssetRepository interface {
	Save(ctx context.Context, asset *FlyerAsset) error
	GetByID(ctx context.Context, id string) (*FlyerAsset, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]FlyerAsset, error)
}
