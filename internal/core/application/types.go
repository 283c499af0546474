package application

import "github.com/tombolabs/tombola/internal/core/domain"

type RoundSummary struct {
	Id                   uint64
	Status               string
	OpenedAt             int64
	ClosesAt             int64
	DrawnAt              int64
	EndedAt              int64
	ParticipantCount     uint64
	Winner               string
	TotalNormalizedValue uint64
	TotalEntries         uint64
	FeeOwed              uint64
	PrizeClaimed         bool
}

type AssetBalance struct {
	AssetId string
	Balance uint64
}

// ParticipantTotals aggregates one contributor's stake in a round.
type ParticipantTotals struct {
	Contributor          string
	ContributionCount    int
	TotalNormalizedValue uint64
	TotalEntries         uint64
	Indices              []int
}

// Snapshot is the combined round + participant + parameter view.
type Snapshot struct {
	Round       RoundSummary
	Balances    []AssetBalance
	Participant *ParticipantTotals
	Params      domain.PoolParams
}

func newRoundSummary(round *domain.Round) RoundSummary {
	return RoundSummary{
		Id:                   round.Id,
		Status:               round.Status.String(),
		OpenedAt:             round.OpenedAt,
		ClosesAt:             round.ClosesAt,
		DrawnAt:              round.DrawnAt,
		EndedAt:              round.EndedAt,
		ParticipantCount:     round.ParticipantCount(),
		Winner:               round.Winner,
		TotalNormalizedValue: round.TotalNormalizedValue,
		TotalEntries:         round.TotalEntries,
		FeeOwed:              round.FeeOwed,
		PrizeClaimed:         round.PrizeClaimed,
	}
}

func newParticipantTotals(round *domain.Round, contributor string) *ParticipantTotals {
	totals := &ParticipantTotals{
		Contributor: contributor,
		Indices:     make([]int, 0),
	}
	for i, contribution := range round.Contributions {
		if contribution.Contributor != contributor {
			continue
		}
		totals.ContributionCount++
		totals.TotalNormalizedValue += contribution.NormalizedValue
		totals.TotalEntries += contribution.EntryCount
		totals.Indices = append(totals.Indices, i)
	}
	return totals
}
