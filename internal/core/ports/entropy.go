package ports

import "context"

// Entropy is the raw material of one draw: the previous draw hash, the
// sampling timestamp and a beacon value from the host platform.
type Entropy struct {
	PrevHash  []byte
	Timestamp int64
	Beacon    []byte
}

type EntropySource interface {
	Sample(ctx context.Context) (Entropy, error)
	// Roll feeds the draw hash back so it seeds the next sample.
	Roll(drawHash []byte)
}
