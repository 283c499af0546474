package ports

import "context"

// AssetTransferor moves raw asset amounts between accounts and the pool's
// custody. Any failure is fatal to the calling operation; there is no partial
// transfer.
type AssetTransferor interface {
	// Pull debits the account and credits the pool.
	Pull(ctx context.Context, assetId, from string, amount uint64) error
	// Push debits the pool and credits the recipient.
	Push(ctx context.Context, assetId, to string, amount uint64) error
}
