package domain

import "context"

// ParamsRepository persists the pool parameters. Get returns nil without
// error when nothing has been stored yet.
type ParamsRepository interface {
	Get(ctx context.Context) (*PoolParams, error)
	Upsert(ctx context.Context, params PoolParams) error
	Close()
}
