package domain

// Contribution is a single deposit into a round. It is immutable once
// recorded except for the Claimed flag, set exactly once when the deposit is
// paid back (cancelled round) or marked as settled (drawn round).
type Contribution struct {
	RoundId         uint64
	Contributor     string
	AssetId         string
	RawAmount       uint64
	NormalizedValue uint64
	EntryCount      uint64
	Claimed         bool
}
