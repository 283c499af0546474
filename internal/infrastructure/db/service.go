package db

import (
	"fmt"
	"path/filepath"

	"github.com/tombolabs/tombola/internal/core/domain"
	"github.com/tombolabs/tombola/internal/core/ports"
	badgerdb "github.com/tombolabs/tombola/internal/infrastructure/db/badger"
	sqlitedb "github.com/tombolabs/tombola/internal/infrastructure/db/sqlite"
)

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.RoundEventRepository, error){
		"badger": badgerdb.NewRoundEventRepository,
	}
	roundStoreTypes = map[string]func(...interface{}) (domain.RoundRepository, error){
		"badger": badgerdb.NewRoundRepository,
		"sqlite": sqlitedb.NewRoundRepository,
	}
	assetStoreTypes = map[string]func(...interface{}) (domain.AssetRepository, error){
		"badger": badgerdb.NewAssetRepository,
		"sqlite": sqlitedb.NewAssetRepository,
	}
	paramsStoreTypes = map[string]func(...interface{}) (domain.ParamsRepository, error){
		"badger": badgerdb.NewParamsRepository,
		"sqlite": sqlitedb.NewParamsRepository,
	}
)

const sqliteDbFile = "sqlite.db"

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore  domain.RoundEventRepository
	roundStore  domain.RoundRepository
	assetStore  domain.AssetRepository
	paramsStore domain.ParamsRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid event store type: %s", config.EventStoreType)
	}

	roundStoreFactory, ok := roundStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	assetStoreFactory := assetStoreTypes[config.DataStoreType]
	paramsStoreFactory := paramsStoreTypes[config.DataStoreType]

	dataStoreConfig := config.DataStoreConfig
	if config.DataStoreType == "sqlite" {
		if len(dataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}
		baseDir, ok := dataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid data store base directory")
		}
		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, err
		}
		dataStoreConfig = []interface{}{db}
	}

	eventStore, err := eventStoreFactory(config.EventStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create event store: %w", err)
	}

	roundStore, err := roundStoreFactory(dataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create round store: %w", err)
	}

	assetStore, err := assetStoreFactory(dataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}

	paramsStore, err := paramsStoreFactory(dataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create params store: %w", err)
	}

	return &service{
		eventStore:  eventStore,
		roundStore:  roundStore,
		assetStore:  assetStore,
		paramsStore: paramsStore,
	}, nil
}

func (s *service) Events() domain.RoundEventRepository {
	return s.eventStore
}

func (s *service) Rounds() domain.RoundRepository {
	return s.roundStore
}

func (s *service) Assets() domain.AssetRepository {
	return s.assetStore
}

func (s *service) Params() domain.ParamsRepository {
	return s.paramsStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.roundStore.Close()
	s.assetStore.Close()
	s.paramsStore.Close()
}
