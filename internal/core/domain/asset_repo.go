package domain

import "context"

// AssetRepository is the whitelist of accepted asset types. Get returns nil
// without error when the asset is not registered.
type AssetRepository interface {
	AddAsset(ctx context.Context, asset SupportedAsset) error
	UpdateAsset(ctx context.Context, asset SupportedAsset) error
	RemoveAsset(ctx context.Context, assetId string) error
	GetAsset(ctx context.Context, assetId string) (*SupportedAsset, error)
	GetAllAssets(ctx context.Context) ([]SupportedAsset, error)
	Close()
}
