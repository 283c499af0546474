package domain

import (
	"fmt"
	"time"
)

const (
	UndefinedStatus RoundStatus = iota
	OpenStatus
	DrawingStatus
	DrawnStatus
	CancelledStatus
)

type RoundStatus int

func (s RoundStatus) String() string {
	switch s {
	case OpenStatus:
		return "OPEN"
	case DrawingStatus:
		return "DRAWING"
	case DrawnStatus:
		return "DRAWN"
	case CancelledStatus:
		return "CANCELLED"
	default:
		return "UNDEFINED"
	}
}

// Round is the aggregate of one lottery cycle: the ordered deposit ledger,
// the per-asset pool balances and the lifecycle state machine
// Open -> Drawing -> Drawn|Cancelled. It is event-sourced: mutating methods
// validate, raise events and return them; On applies events to the state.
type Round struct {
	Id                   uint64
	Status               RoundStatus
	OpenedAt             int64
	ClosesAt             int64
	DrawnAt              int64
	EndedAt              int64
	Winner               string
	WinningIndex         uint64
	DrawHash             string
	TotalNormalizedValue uint64
	TotalEntries         uint64
	FeeOwed              uint64
	PrizeClaimed         bool
	Contributions        []Contribution
	Participants         map[string]struct{}
	AssetBalances        map[string]uint64
	PaidOut              map[string]uint64
	Version              uint

	changes []RoundEvent
}

func NewRound(id uint64) *Round {
	return &Round{
		Id:            id,
		Participants:  make(map[string]struct{}),
		AssetBalances: make(map[string]uint64),
		PaidOut:       make(map[string]uint64),
		changes:       make([]RoundEvent, 0),
	}
}

func NewRoundFromEvents(events []RoundEvent) *Round {
	r := &Round{}

	for _, event := range events {
		r.On(event, true)
	}

	r.changes = append([]RoundEvent{}, events...)

	return r
}

func (r *Round) Events() []RoundEvent {
	return r.changes
}

func (r *Round) On(event RoundEvent, replayed bool) {
	switch e := event.(type) {
	case RoundOpened:
		r.Id = e.Id
		r.Status = OpenStatus
		if r.Participants == nil {
			r.Participants = make(map[string]struct{})
		}
		if r.AssetBalances == nil {
			r.AssetBalances = make(map[string]uint64)
		}
		if r.PaidOut == nil {
			r.PaidOut = make(map[string]uint64)
		}
	case ContributionRecorded:
		if e.ClosesAt > 0 {
			r.OpenedAt = e.Timestamp
			r.ClosesAt = e.ClosesAt
		}
		r.Contributions = append(r.Contributions, Contribution{
			RoundId:         e.Id,
			Contributor:     e.Contributor,
			AssetId:         e.AssetId,
			RawAmount:       e.RawAmount,
			NormalizedValue: e.NormalizedValue,
			EntryCount:      e.EntryCount,
		})
		r.Participants[e.Contributor] = struct{}{}
		r.AssetBalances[e.AssetId] += e.RawAmount
		r.TotalNormalizedValue += e.NormalizedValue
		r.TotalEntries += e.EntryCount
	case DrawingStarted:
		r.Status = DrawingStatus
	case WinnerDrawn:
		r.Status = DrawnStatus
		r.Winner = e.Winner
		r.WinningIndex = e.WinningIndex
		r.DrawHash = e.DrawHash
		r.FeeOwed = e.FeeOwed
		r.DrawnAt = e.Timestamp
		r.EndedAt = e.Timestamp
	case RoundCancelled:
		r.Status = CancelledStatus
		r.EndedAt = e.Timestamp
	case PrizeClaimed:
		r.PrizeClaimed = true
		for _, index := range e.Indices {
			r.Contributions[index].Claimed = true
		}
		for assetId, fee := range e.Fees {
			r.payOut(assetId, fee)
		}
		for assetId, prize := range e.Prizes {
			r.payOut(assetId, prize)
		}
	case RefundsWithdrawn:
		for _, index := range e.Indices {
			r.Contributions[index].Claimed = true
		}
		for assetId, amount := range e.Amounts {
			r.payOut(assetId, amount)
		}
	}

	if replayed {
		r.Version++
	}
}

// Open activates a freshly created round. It is always the terminal action of
// a Drawn or Cancelled transition of the previous round, never re-entrant on
// the same id.
func (r *Round) Open() ([]RoundEvent, error) {
	if r.Status != UndefinedStatus {
		return nil, fmt.Errorf("round %d already opened", r.Id)
	}

	event := RoundOpened{
		Id:        r.Id,
		Timestamp: time.Now().Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// RegisterContribution appends a deposit to the ledger. The round's first
// contribution fixes the close deadline at now + duration. Reaching capacity
// distinct participants immediately flips the round to Drawing.
func (r *Round) RegisterContribution(
	contributor, assetId string,
	rawAmount, normalizedValue, valuePerEntry, capacity uint64,
	duration int64, now time.Time,
) ([]RoundEvent, error) {
	if r.Status != OpenStatus {
		return nil, ErrRoundNotOpen
	}
	if r.ClosesAt > 0 && now.Unix() >= r.ClosesAt {
		return nil, ErrRoundExpired
	}

	_, known := r.Participants[contributor]
	if !known && uint64(len(r.Participants)) >= capacity {
		return nil, ErrRoundFull
	}

	entryCount := normalizedValue / valuePerEntry
	if entryCount <= 0 {
		return nil, ErrBelowEntryThreshold
	}

	event := ContributionRecorded{
		Id:              r.Id,
		Contributor:     contributor,
		AssetId:         assetId,
		RawAmount:       rawAmount,
		NormalizedValue: normalizedValue,
		EntryCount:      entryCount,
		NewParticipant:  !known,
		Timestamp:       now.Unix(),
	}
	if len(r.Contributions) <= 0 {
		event.ClosesAt = now.Unix() + duration
	}
	r.raise(event)

	events := []RoundEvent{event}
	if uint64(len(r.Participants)) >= capacity {
		full := DrawingStarted{Id: r.Id, Timestamp: now.Unix()}
		r.raise(full)
		events = append(events, full)
	}

	return events, nil
}

// StartDrawing flips an expired open round to Drawing. The deadline is
// evaluated lazily, only when a draw request touches the round.
func (r *Round) StartDrawing(now time.Time) ([]RoundEvent, error) {
	if r.Status != OpenStatus || r.ClosesAt <= 0 || now.Unix() < r.ClosesAt {
		return nil, ErrNotDrawable
	}

	event := DrawingStarted{Id: r.Id, Timestamp: now.Unix()}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// ConcludeDraw records the selected winner and the fee owed on the round's
// total normalized value. Terminal for this round id.
func (r *Round) ConcludeDraw(
	winner string, winningIndex uint64, drawHash string, feeBp uint64, now time.Time,
) ([]RoundEvent, error) {
	if r.Status != DrawingStatus {
		return nil, ErrNotDrawable
	}
	if len(r.Winner) > 0 {
		return nil, ErrAlreadyDrawn
	}
	if _, ok := r.Participants[winner]; !ok {
		return nil, ErrNoEligibleEntries
	}

	event := WinnerDrawn{
		Id:           r.Id,
		Winner:       winner,
		WinningIndex: winningIndex,
		DrawHash:     drawHash,
		FeeOwed:      r.TotalNormalizedValue * feeBp / WorthParityBp,
		Timestamp:    now.Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// Cancel terminates a Drawing round that cannot be drawn for insufficient
// participation. Terminal for this round id.
func (r *Round) Cancel(now time.Time) ([]RoundEvent, error) {
	if r.Status != DrawingStatus || len(r.Winner) > 0 {
		return nil, ErrNotDrawable
	}

	event := RoundCancelled{Id: r.Id, Timestamp: now.Unix()}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// CancelExpired is the keeper cancellation path: the round must still be
// Open, past its deadline, with fewer than minParticipants contributors.
func (r *Round) CancelExpired(now time.Time, minParticipants uint64) ([]RoundEvent, error) {
	if r.Status != OpenStatus {
		return nil, ErrRoundNotOpen
	}
	if r.ClosesAt <= 0 || now.Unix() < r.ClosesAt {
		return nil, ErrDeadlineNotReached
	}
	if uint64(len(r.Participants)) >= minParticipants {
		return nil, ErrTooManyParticipants
	}

	event := RoundCancelled{Id: r.Id, Timestamp: now.Unix()}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// ClaimPrize settles a drawn round. The payout is computed from the live
// per-asset balances, not from the claimed indices: for every asset with a
// nonzero balance the fee is balance*feeBp/10000 (floor) and the prize is the
// remainder. The claimed flag is set before any payment is executed.
func (r *Round) ClaimPrize(
	caller string, indices []int, feeBp uint64, payoutId string, now time.Time,
) ([]RoundEvent, error) {
	if r.Status != DrawnStatus {
		return nil, ErrRoundNotDrawn
	}
	if caller != r.Winner {
		return nil, ErrNotWinner
	}
	if r.PrizeClaimed {
		return nil, ErrAlreadyClaimed
	}
	for _, index := range indices {
		if index < 0 || index >= len(r.Contributions) {
			return nil, ErrInvalidIndex
		}
	}

	fees := make(map[string]uint64)
	prizes := make(map[string]uint64)
	for assetId, balance := range r.AssetBalances {
		if balance <= 0 {
			continue
		}
		fee := balance * feeBp / WorthParityBp
		fees[assetId] = fee
		prizes[assetId] = balance - fee
	}

	event := PrizeClaimed{
		Id:        r.Id,
		PayoutId:  payoutId,
		Winner:    r.Winner,
		Indices:   append([]int{}, indices...),
		Fees:      fees,
		Prizes:    prizes,
		Timestamp: now.Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

// Withdraw refunds the given contributions of a cancelled round to their
// original contributor, aggregated per asset. Each index is refunded exactly
// once.
func (r *Round) Withdraw(
	caller string, indices []int, payoutId string, now time.Time,
) ([]RoundEvent, error) {
	if r.Status != CancelledStatus {
		return nil, ErrRoundNotCancelled
	}
	if len(indices) <= 0 {
		return nil, fmt.Errorf("missing contribution indices")
	}

	amounts := make(map[string]uint64)
	seen := make(map[int]struct{})
	for _, index := range indices {
		if index < 0 || index >= len(r.Contributions) {
			return nil, ErrInvalidIndex
		}
		contribution := r.Contributions[index]
		if contribution.Contributor != caller {
			return nil, ErrNotOwner
		}
		if contribution.Claimed {
			return nil, ErrAlreadyWithdrawn
		}
		if _, dup := seen[index]; dup {
			return nil, ErrAlreadyWithdrawn
		}
		seen[index] = struct{}{}
		amounts[contribution.AssetId] += contribution.RawAmount
	}

	event := RefundsWithdrawn{
		Id:          r.Id,
		PayoutId:    payoutId,
		Contributor: caller,
		Indices:     append([]int{}, indices...),
		Amounts:     amounts,
		Timestamp:   now.Unix(),
	}
	r.raise(event)

	return []RoundEvent{event}, nil
}

func (r *Round) IsOpen() bool      { return r.Status == OpenStatus }
func (r *Round) IsDrawing() bool   { return r.Status == DrawingStatus }
func (r *Round) IsDrawn() bool     { return r.Status == DrawnStatus }
func (r *Round) IsCancelled() bool { return r.Status == CancelledStatus }

func (r *Round) IsEnded() bool {
	return r.Status == DrawnStatus || r.Status == CancelledStatus
}

func (r *Round) ParticipantCount() uint64 {
	return uint64(len(r.Participants))
}

// ContributionIndicesOf returns the ledger indices of a contributor's
// deposits, in insertion order.
func (r *Round) ContributionIndicesOf(contributor string) []int {
	indices := make([]int, 0)
	for i, contribution := range r.Contributions {
		if contribution.Contributor == contributor {
			indices = append(indices, i)
		}
	}
	return indices
}

// NonzeroAssetBalances returns a copy of the per-asset balances still held by
// the round.
func (r *Round) NonzeroAssetBalances() map[string]uint64 {
	balances := make(map[string]uint64, len(r.AssetBalances))
	for assetId, balance := range r.AssetBalances {
		if balance > 0 {
			balances[assetId] = balance
		}
	}
	return balances
}

func (r *Round) payOut(assetId string, amount uint64) {
	if amount <= 0 {
		return
	}
	r.PaidOut[assetId] += amount
	if r.AssetBalances[assetId] <= amount {
		delete(r.AssetBalances, assetId)
		return
	}
	r.AssetBalances[assetId] -= amount
}

func (r *Round) raise(event RoundEvent) {
	if r.changes == nil {
		r.changes = make([]RoundEvent, 0)
	}
	r.changes = append(r.changes, event)
	r.On(event, false)
}
