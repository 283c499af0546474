package domain

import "fmt"

// PoolParams are the runtime-tunable parameters of the lottery pool. They are
// persisted so that owner updates survive restarts.
type PoolParams struct {
	ValuePerEntry   uint64
	RoundDuration   int64 // seconds
	FeeBp           uint64
	FeeRecipient    string
	Capacity        uint64
	MinParticipants uint64
	Keeper          string
	OutflowAllowed  bool
	Paused          bool
}

func (p PoolParams) Validate() error {
	if p.ValuePerEntry <= 0 {
		return fmt.Errorf("missing value per entry")
	}
	if p.RoundDuration <= 0 {
		return fmt.Errorf("missing round duration")
	}
	if p.FeeBp > WorthParityBp {
		return fmt.Errorf("fee basis points exceed %d", WorthParityBp)
	}
	if len(p.FeeRecipient) <= 0 {
		return fmt.Errorf("missing fee recipient")
	}
	if p.Capacity <= 1 {
		return fmt.Errorf("capacity must be greater than 1")
	}
	if p.MinParticipants < 2 {
		return fmt.Errorf("min participants must be at least 2")
	}
	if p.MinParticipants > p.Capacity {
		return fmt.Errorf("min participants exceed capacity")
	}
	if len(p.Keeper) <= 0 {
		return fmt.Errorf("missing keeper")
	}
	return nil
}
