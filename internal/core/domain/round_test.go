package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tombolabs/tombola/internal/core/domain"
)

var (
	valuePerEntry = uint64(100)
	capacity      = uint64(4)
	duration      = int64(600)
	feeBp         = uint64(300)

	alice = "alice"
	bob   = "bob"
	carol = "carol"

	tokenA = "tokenA"
	tokenB = "tokenB"

	now = time.Unix(1_700_000_000, 0)
)

func TestRound(t *testing.T) {
	testOpen(t)

	testRegisterContribution(t)

	testStartDrawing(t)

	testConcludeDraw(t)

	testCancel(t)

	testClaimPrize(t)

	testWithdraw(t)

	testReplay(t)
}

func testOpen(t *testing.T) {
	t.Run("open", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := domain.NewRound(1)
			require.NotNil(t, round)
			require.Empty(t, round.Events())
			require.False(t, round.IsOpen())

			events, err := round.Open()
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsOpen())
			require.Zero(t, round.ClosesAt)
			require.Zero(t, round.ParticipantCount())

			event, ok := events[0].(domain.RoundOpened)
			require.True(t, ok)
			require.Equal(t, round.Id, event.Id)
		})

		t.Run("invalid", func(t *testing.T) {
			round := domain.NewRound(1)
			_, err := round.Open()
			require.NoError(t, err)

			events, err := round.Open()
			require.Error(t, err)
			require.Empty(t, events)
		})
	})
}

func testRegisterContribution(t *testing.T) {
	t.Run("register_contribution", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := openRound(t, 1)

			events, err := round.RegisterContribution(
				alice, tokenA, 1000, 1000, valuePerEntry, capacity, duration, now,
			)
			require.NoError(t, err)
			require.Len(t, events, 1)

			event, ok := events[0].(domain.ContributionRecorded)
			require.True(t, ok)
			require.Equal(t, round.Id, event.Id)
			require.Equal(t, uint64(10), event.EntryCount)
			require.True(t, event.NewParticipant)
			require.Equal(t, now.Unix()+duration, event.ClosesAt)

			require.Equal(t, now.Unix(), round.OpenedAt)
			require.Equal(t, now.Unix()+duration, round.ClosesAt)
			require.Equal(t, uint64(1), round.ParticipantCount())
			require.Equal(t, uint64(10), round.TotalEntries)
			require.Equal(t, uint64(1000), round.TotalNormalizedValue)
			require.Equal(t, uint64(1000), round.AssetBalances[tokenA])

			// repeat contribution by the same contributor does not double
			// count the participant
			events, err = round.RegisterContribution(
				alice, tokenB, 500, 500, valuePerEntry, capacity, duration,
				now.Add(time.Minute),
			)
			require.NoError(t, err)
			require.Len(t, events, 1)

			event, ok = events[0].(domain.ContributionRecorded)
			require.True(t, ok)
			require.False(t, event.NewParticipant)
			require.Zero(t, event.ClosesAt)

			require.Equal(t, uint64(1), round.ParticipantCount())
			require.Equal(t, uint64(15), round.TotalEntries)
			require.Equal(t, uint64(1500), round.TotalNormalizedValue)
			require.Len(t, round.Contributions, 2)

			// deadline fixed by the first contribution does not move
			require.Equal(t, now.Unix()+duration, round.ClosesAt)
		})

		t.Run("capacity_reached", func(t *testing.T) {
			round := openRound(t, 1)

			_, err := round.RegisterContribution(
				alice, tokenA, 1000, 1000, valuePerEntry, 2, duration, now,
			)
			require.NoError(t, err)
			require.True(t, round.IsOpen())

			events, err := round.RegisterContribution(
				bob, tokenA, 1000, 1000, valuePerEntry, 2, duration, now,
			)
			require.NoError(t, err)
			require.Len(t, events, 2)
			require.True(t, round.IsDrawing())

			_, ok := events[1].(domain.DrawingStarted)
			require.True(t, ok)

			events, err = round.RegisterContribution(
				carol, tokenA, 1000, 1000, valuePerEntry, 2, duration, now,
			)
			require.ErrorIs(t, err, domain.ErrRoundNotOpen)
			require.Empty(t, events)
		})

		t.Run("invalid", func(t *testing.T) {
			expired := openRound(t, 1)
			_, err := expired.RegisterContribution(
				alice, tokenA, 1000, 1000, valuePerEntry, capacity, duration, now,
			)
			require.NoError(t, err)

			// params may shrink capacity below the current participant
			// count between contributions
			full := openRound(t, 2)
			_, err = full.RegisterContribution(
				alice, tokenA, 1000, 1000, valuePerEntry, capacity, duration, now,
			)
			require.NoError(t, err)
			_, err = full.RegisterContribution(
				carol, tokenA, 1000, 1000, valuePerEntry, capacity, duration, now,
			)
			require.NoError(t, err)

			fixtures := []struct {
				name        string
				round       *domain.Round
				contributor string
				amount      uint64
				now         time.Time
				expectedErr error
			}{
				{
					name:        "not_open",
					round:       domain.NewRound(1),
					contributor: alice,
					amount:      1000,
					now:         now,
					expectedErr: domain.ErrRoundNotOpen,
				},
				{
					name:        "expired",
					round:       expired,
					contributor: bob,
					amount:      1000,
					now:         now.Add(time.Duration(duration) * time.Second),
					expectedErr: domain.ErrRoundExpired,
				},
				{
					name:        "full",
					round:       full,
					contributor: bob,
					amount:      1000,
					now:         now,
					expectedErr: domain.ErrRoundFull,
				},
				{
					name:        "below_entry_threshold",
					round:       openRound(t, 3),
					contributor: alice,
					amount:      99,
					now:         now,
					expectedErr: domain.ErrBelowEntryThreshold,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.RegisterContribution(
						f.contributor, tokenA, f.amount, f.amount,
						valuePerEntry, 2, duration, f.now,
					)
					require.ErrorIs(t, err, f.expectedErr)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testStartDrawing(t *testing.T) {
	t.Run("start_drawing", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := activeRound(t, alice, bob)

			deadline := time.Unix(round.ClosesAt, 0)
			events, err := round.StartDrawing(deadline)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsDrawing())
		})

		t.Run("invalid", func(t *testing.T) {
			fresh := openRound(t, 1)

			active := activeRound(t, alice, bob)

			fixtures := []struct {
				name  string
				round *domain.Round
				now   time.Time
			}{
				{
					name:  "deadline_unset",
					round: fresh,
					now:   now.Add(24 * time.Hour),
				},
				{
					name:  "deadline_not_reached",
					round: active,
					now:   now,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.StartDrawing(f.now)
					require.ErrorIs(t, err, domain.ErrNotDrawable)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testConcludeDraw(t *testing.T) {
	t.Run("conclude_draw", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := drawingRound(t, alice, bob)

			events, err := round.ConcludeDraw(alice, 3, "deadbeef", feeBp, now)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsDrawn())
			require.Equal(t, alice, round.Winner)

			event, ok := events[0].(domain.WinnerDrawn)
			require.True(t, ok)
			require.Equal(t, alice, event.Winner)
			// fee owed is computed once, on the round's total normalized
			// value
			require.Equal(t, round.TotalNormalizedValue*feeBp/10000, event.FeeOwed)
		})

		t.Run("invalid", func(t *testing.T) {
			open := openRound(t, 1)

			drawn := drawingRound(t, alice, bob)
			_, err := drawn.ConcludeDraw(alice, 0, "deadbeef", feeBp, now)
			require.NoError(t, err)

			stranger := drawingRound(t, alice, bob)

			fixtures := []struct {
				name        string
				round       *domain.Round
				winner      string
				expectedErr error
			}{
				{
					name:        "not_drawing",
					round:       open,
					winner:      alice,
					expectedErr: domain.ErrNotDrawable,
				},
				{
					name:        "already_drawn",
					round:       drawn,
					winner:      bob,
					expectedErr: domain.ErrNotDrawable,
				},
				{
					name:        "winner_not_participant",
					round:       stranger,
					winner:      carol,
					expectedErr: domain.ErrNoEligibleEntries,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.ConcludeDraw(f.winner, 0, "deadbeef", feeBp, now)
					require.ErrorIs(t, err, f.expectedErr)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testCancel(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		t.Run("insufficient_participation", func(t *testing.T) {
			round := activeRound(t, alice)

			deadline := time.Unix(round.ClosesAt, 0)
			_, err := round.StartDrawing(deadline)
			require.NoError(t, err)

			events, err := round.Cancel(deadline)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsCancelled())
		})

		t.Run("keeper_cancel", func(t *testing.T) {
			round := activeRound(t, alice)
			deadline := time.Unix(round.ClosesAt, 0)

			events, err := round.CancelExpired(deadline, 2)
			require.NoError(t, err)
			require.Len(t, events, 1)
			require.True(t, round.IsCancelled())
		})

		t.Run("invalid", func(t *testing.T) {
			active := activeRound(t, alice)
			deadline := time.Unix(active.ClosesAt, 0)

			crowded := activeRound(t, alice, bob)

			fixtures := []struct {
				name            string
				round           *domain.Round
				now             time.Time
				minParticipants uint64
				expectedErr     error
			}{
				{
					name:            "not_open",
					round:           domain.NewRound(1),
					now:             deadline,
					minParticipants: 2,
					expectedErr:     domain.ErrRoundNotOpen,
				},
				{
					name:            "deadline_not_reached",
					round:           active,
					now:             now,
					minParticipants: 2,
					expectedErr:     domain.ErrDeadlineNotReached,
				},
				{
					name:            "too_many_participants",
					round:           crowded,
					now:             time.Unix(crowded.ClosesAt, 0),
					minParticipants: 2,
					expectedErr:     domain.ErrTooManyParticipants,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.CancelExpired(f.now, f.minParticipants)
					require.ErrorIs(t, err, f.expectedErr)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testClaimPrize(t *testing.T) {
	t.Run("claim_prize", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := drawingRound(t, alice, bob)
			_, err := round.ConcludeDraw(bob, 0, "deadbeef", feeBp, now)
			require.NoError(t, err)

			// tokenA balance 1000, tokenB balance 500, fee 300bp
			events, err := round.ClaimPrize(bob, round.ContributionIndicesOf(bob), feeBp, "payout-1", now)
			require.NoError(t, err)
			require.Len(t, events, 1)

			event, ok := events[0].(domain.PrizeClaimed)
			require.True(t, ok)
			require.Equal(t, uint64(30), event.Fees[tokenA])
			require.Equal(t, uint64(970), event.Prizes[tokenA])
			require.Equal(t, uint64(15), event.Fees[tokenB])
			require.Equal(t, uint64(485), event.Prizes[tokenB])

			// payout never exceeds what was deposited
			require.Equal(t, uint64(1000), event.Fees[tokenA]+event.Prizes[tokenA])
			require.Equal(t, uint64(500), event.Fees[tokenB]+event.Prizes[tokenB])

			require.True(t, round.PrizeClaimed)
			require.Empty(t, round.NonzeroAssetBalances())
			require.Equal(t, uint64(1000), round.PaidOut[tokenA])
			require.Equal(t, uint64(500), round.PaidOut[tokenB])

			// second claim is rejected
			events, err = round.ClaimPrize(bob, nil, feeBp, "payout-2", now)
			require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
			require.Empty(t, events)
		})

		t.Run("invalid", func(t *testing.T) {
			drawn := drawingRound(t, alice, bob)
			_, err := drawn.ConcludeDraw(bob, 0, "deadbeef", feeBp, now)
			require.NoError(t, err)

			fixtures := []struct {
				name        string
				round       *domain.Round
				caller      string
				indices     []int
				expectedErr error
			}{
				{
					name:        "not_drawn",
					round:       drawingRound(t, alice, bob),
					caller:      bob,
					indices:     nil,
					expectedErr: domain.ErrRoundNotDrawn,
				},
				{
					name:        "not_winner",
					round:       drawn,
					caller:      alice,
					indices:     nil,
					expectedErr: domain.ErrNotWinner,
				},
				{
					name:        "index_out_of_range",
					round:       drawn,
					caller:      bob,
					indices:     []int{42},
					expectedErr: domain.ErrInvalidIndex,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.ClaimPrize(f.caller, f.indices, feeBp, "payout", now)
					require.ErrorIs(t, err, f.expectedErr)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testWithdraw(t *testing.T) {
	t.Run("withdraw", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			round := cancelledRound(t, alice)

			indices := round.ContributionIndicesOf(alice)
			events, err := round.Withdraw(alice, indices, "payout-1", now)
			require.NoError(t, err)
			require.Len(t, events, 1)

			event, ok := events[0].(domain.RefundsWithdrawn)
			require.True(t, ok)
			require.Equal(t, alice, event.Contributor)
			// the single participant gets their full raw amount back
			require.Equal(t, uint64(1000), event.Amounts[tokenA])
			require.Empty(t, round.NonzeroAssetBalances())

			// repeat withdrawal of the same index is rejected
			events, err = round.Withdraw(alice, indices, "payout-2", now)
			require.ErrorIs(t, err, domain.ErrAlreadyWithdrawn)
			require.Empty(t, events)
		})

		t.Run("invalid", func(t *testing.T) {
			cancelled := cancelledRound(t, alice)

			fixtures := []struct {
				name        string
				round       *domain.Round
				caller      string
				indices     []int
				expectedErr error
			}{
				{
					name:        "not_cancelled",
					round:       activeRound(t, alice),
					caller:      alice,
					indices:     []int{0},
					expectedErr: domain.ErrRoundNotCancelled,
				},
				{
					name:        "index_out_of_range",
					round:       cancelled,
					caller:      alice,
					indices:     []int{42},
					expectedErr: domain.ErrInvalidIndex,
				},
				{
					name:        "not_owner",
					round:       cancelled,
					caller:      bob,
					indices:     []int{0},
					expectedErr: domain.ErrNotOwner,
				},
				{
					name:        "duplicate_index",
					round:       cancelled,
					caller:      alice,
					indices:     []int{0, 0},
					expectedErr: domain.ErrAlreadyWithdrawn,
				},
			}

			for _, f := range fixtures {
				t.Run(f.name, func(t *testing.T) {
					events, err := f.round.Withdraw(f.caller, f.indices, "payout", now)
					require.ErrorIs(t, err, f.expectedErr)
					require.Empty(t, events)
				})
			}
		})
	})
}

func testReplay(t *testing.T) {
	t.Run("replay", func(t *testing.T) {
		round := drawingRound(t, alice, bob)
		_, err := round.ConcludeDraw(alice, 2, "deadbeef", feeBp, now)
		require.NoError(t, err)
		_, err = round.ClaimPrize(alice, nil, feeBp, "payout-1", now)
		require.NoError(t, err)

		replayed := domain.NewRoundFromEvents(round.Events())
		require.Equal(t, round.Id, replayed.Id)
		require.Equal(t, round.Status, replayed.Status)
		require.Equal(t, round.Winner, replayed.Winner)
		require.Equal(t, round.TotalEntries, replayed.TotalEntries)
		require.Equal(t, round.TotalNormalizedValue, replayed.TotalNormalizedValue)
		require.Equal(t, round.Contributions, replayed.Contributions)
		require.Equal(t, round.Participants, replayed.Participants)
		require.Equal(t, round.PaidOut, replayed.PaidOut)
		require.True(t, replayed.PrizeClaimed)

		// conservation: totals always equal the sum over contributions
		totalEntries, totalValue := uint64(0), uint64(0)
		for _, c := range replayed.Contributions {
			totalEntries += c.EntryCount
			totalValue += c.NormalizedValue
		}
		require.Equal(t, totalEntries, replayed.TotalEntries)
		require.Equal(t, totalValue, replayed.TotalNormalizedValue)
	})
}

func openRound(t *testing.T, id uint64) *domain.Round {
	round := domain.NewRound(id)
	_, err := round.Open()
	require.NoError(t, err)
	return round
}

// activeRound opens a round and registers one tokenA contribution of 1000
// for the first contributor and one tokenB contribution of 500 for each
// additional one.
func activeRound(t *testing.T, contributors ...string) *domain.Round {
	round := openRound(t, 1)
	for i, contributor := range contributors {
		token, amount := tokenA, uint64(1000)
		if i > 0 {
			token, amount = tokenB, 500
		}
		_, err := round.RegisterContribution(
			contributor, token, amount, amount, valuePerEntry, capacity, duration, now,
		)
		require.NoError(t, err)
	}
	return round
}

func drawingRound(t *testing.T, contributors ...string) *domain.Round {
	round := activeRound(t, contributors...)
	_, err := round.StartDrawing(time.Unix(round.ClosesAt, 0))
	require.NoError(t, err)
	return round
}

func cancelledRound(t *testing.T, contributors ...string) *domain.Round {
	round := activeRound(t, contributors...)
	_, err := round.CancelExpired(time.Unix(round.ClosesAt, 0), 2)
	require.NoError(t, err)
	return round
}
