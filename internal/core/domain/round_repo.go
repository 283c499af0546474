package domain

import "context"

type RoundEventRepository interface {
	Save(ctx context.Context, id uint64, events ...RoundEvent) (*Round, error)
	Load(ctx context.Context, id uint64) (*Round, error)
	// GetLatestRound replays the round with the highest id, nil when the
	// store is empty. This is the durable source of truth for bootstrap;
	// the RoundRepository projection is updated asynchronously and may lag.
	GetLatestRound(ctx context.Context) (*Round, error)
	RegisterEventsHandler(func(*Round))
	Close()
}

type RoundRepository interface {
	AddOrUpdateRound(ctx context.Context, round Round) error
	GetRoundWithId(ctx context.Context, id uint64) (*Round, error)
	GetCurrentRound(ctx context.Context) (*Round, error)
	GetRoundIds(ctx context.Context, startedAfter, startedBefore int64) ([]uint64, error)
	Close()
}
