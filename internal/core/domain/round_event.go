package domain

type RoundOpened struct {
	Id        uint64
	Timestamp int64
}

// ContributionRecorded carries the full deposit record. ClosesAt is nonzero
// only on the round's first contribution, which fixes the deadline.
type ContributionRecorded struct {
	Id              uint64
	Contributor     string
	AssetId         string
	RawAmount       uint64
	NormalizedValue uint64
	EntryCount      uint64
	NewParticipant  bool
	ClosesAt        int64
	Timestamp       int64
}

type DrawingStarted struct {
	Id        uint64
	Timestamp int64
}

type WinnerDrawn struct {
	Id           uint64
	Winner       string
	WinningIndex uint64
	DrawHash     string
	FeeOwed      uint64
	Timestamp    int64
}

type RoundCancelled struct {
	Id        uint64
	Timestamp int64
}

// PrizeClaimed settles a drawn round: per-asset fees go to the fee recipient,
// the remainder of each balance to the winner.
type PrizeClaimed struct {
	Id        uint64
	PayoutId  string
	Winner    string
	Indices   []int
	Fees      map[string]uint64
	Prizes    map[string]uint64
	Timestamp int64
}

// RefundsWithdrawn refunds the given contributions of a cancelled round back
// to their contributor, aggregated per asset.
type RefundsWithdrawn struct {
	Id          uint64
	PayoutId    string
	Contributor string
	Indices     []int
	Amounts     map[string]uint64
	Timestamp   int64
}
