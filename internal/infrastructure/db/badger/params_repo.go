package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tombolabs/tombola/internal/core/domain"
)

const (
	paramsStoreDir = "params"
	paramsKey      = "pool"
)

type paramsRepository struct {
	store *badgerhold.Store
}

func NewParamsRepository(config ...interface{}) (domain.ParamsRepository, error) {
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
		dir = filepath.Join(baseDir, paramsStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open params store: %s", err)
	}

	return &paramsRepository{store}, nil
}

func (r *paramsRepository) Get(_ context.Context) (*domain.PoolParams, error) {
	params := domain.PoolParams{}
	if err := r.store.Get(paramsKey, &params); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pool params: %s", err)
	}
	return &params, nil
}

func (r *paramsRepository) Upsert(_ context.Context, params domain.PoolParams) error {
	if err := r.store.Upsert(paramsKey, params); err != nil {
		return fmt.Errorf("failed to upsert pool params: %s", err)
	}
	return nil
}

func (r *paramsRepository) Close() {
	// nolint:all
	r.store.Close()
}
