package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tombolabs/tombola/internal/core/domain"
)

const assetStoreDir = "assets"

type assetRepository struct {
	store *badgerhold.Store
}

func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, assetStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %s", err)
	}

	return &assetRepository{store}, nil
}

func (r *assetRepository) AddAsset(
	_ context.Context, asset domain.SupportedAsset,
) error {
	if err := r.store.Insert(asset.Id, asset); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrAssetAlreadyWhitelisted
		}
		return fmt.Errorf("failed to insert asset %s: %s", asset.Id, err)
	}
	return nil
}

func (r *assetRepository) UpdateAsset(
	_ context.Context, asset domain.SupportedAsset,
) error {
	if err := r.store.Update(asset.Id, asset); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrAssetNotWhitelisted
		}
		return fmt.Errorf("failed to update asset %s: %s", asset.Id, err)
	}
	return nil
}

func (r *assetRepository) RemoveAsset(_ context.Context, assetId string) error {
	if err := r.store.Delete(assetId, domain.SupportedAsset{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrAssetNotWhitelisted
		}
		return fmt.Errorf("failed to delete asset %s: %s", assetId, err)
	}
	return nil
}

func (r *assetRepository) GetAsset(
	_ context.Context, assetId string,
) (*domain.SupportedAsset, error) {
	asset := domain.SupportedAsset{}
	if err := r.store.Get(assetId, &asset); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset %s: %s", assetId, err)
	}
	return &asset, nil
}

func (r *assetRepository) GetAllAssets(
	_ context.Context,
) ([]domain.SupportedAsset, error) {
	var assets []domain.SupportedAsset
	if err := r.store.Find(&assets, nil); err != nil {
		return nil, fmt.Errorf("failed to query asset store: %s", err)
	}
	if assets == nil {
		assets = make([]domain.SupportedAsset, 0)
	}
	return assets, nil
}

func (r *assetRepository) Close() {
	// nolint:all
	r.store.Close()
}
