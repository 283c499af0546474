package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
	"github.com/tombolabs/tombola/internal/core/domain"
)

const roundStoreDir = "rounds"

type roundRepository struct {
	store *badgerhold.Store
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
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
		dir = filepath.Join(baseDir, roundStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open round store: %s", err)
	}

	return &roundRepository{store}, nil
}

func (r *roundRepository) AddOrUpdateRound(
	_ context.Context, round domain.Round,
) error {
	if err := r.store.Upsert(round.Id, round); err != nil {
		return fmt.Errorf("failed to upsert round %d: %s", round.Id, err)
	}
	return nil
}

func (r *roundRepository) GetRoundWithId(
	_ context.Context, id uint64,
) (*domain.Round, error) {
	round := domain.Round{}
	if err := r.store.Get(id, &round); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("round %d not found", id)
		}
		return nil, err
	}
	return &round, nil
}

func (r *roundRepository) GetCurrentRound(
	_ context.Context,
) (*domain.Round, error) {
	query := badgerhold.Where("Id").Gt(uint64(0)).SortBy("Id").Reverse().Limit(1)
	rounds, err := r.findRound(query)
	if err != nil {
		return nil, err
	}
	if len(rounds) <= 0 {
		return nil, nil
	}
	return &rounds[0], nil
}

func (r *roundRepository) GetRoundIds(
	_ context.Context, startedAfter, startedBefore int64,
) ([]uint64, error) {
	query := badgerhold.Where("EndedAt").Gt(int64(0))

	if startedAfter > 0 {
		query = query.And("OpenedAt").Gt(startedAfter)
	}
	if startedBefore > 0 {
		query = query.And("OpenedAt").Lt(startedBefore)
	}

	rounds, err := r.findRound(query)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(rounds))
	for _, round := range rounds {
		ids = append(ids, round.Id)
	}
	return ids, nil
}

func (r *roundRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *roundRepository) findRound(query *badgerhold.Query) ([]domain.Round, error) {
	var rounds []domain.Round
	if err := r.store.Find(&rounds, query); err != nil {
		return nil, fmt.Errorf("failed to query round store: %s", err)
	}
	return rounds, nil
}
