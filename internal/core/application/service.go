package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tombolabs/tombola/internal/core/domain"
	"github.com/tombolabs/tombola/internal/core/ports"
)

type Service interface {
	Start() error
	Stop()

	Contribute(ctx context.Context, caller, assetId string, amount uint64) (*RoundSummary, error)
	RequestDraw(ctx context.Context, caller string) error
	RequestCancel(ctx context.Context, caller string) error
	ClaimPrize(ctx context.Context, caller string, roundId uint64, indices []int) error
	Withdraw(ctx context.Context, caller string, roundId uint64, indices []int) error

	GetCurrentRoundId(ctx context.Context) uint64
	GetRoundSummary(ctx context.Context, roundId uint64) (*RoundSummary, error)
	GetAssetBalances(ctx context.Context, roundId uint64) ([]AssetBalance, error)
	GetContributionIndices(ctx context.Context, roundId uint64, contributor string) ([]int, error)
	GetParticipantTotals(ctx context.Context, roundId uint64, contributor string) (*ParticipantTotals, error)
	GetSnapshot(ctx context.Context, roundId uint64, contributor string) (*Snapshot, error)
	GetEventsChannel(ctx context.Context) <-chan []domain.RoundEvent
}

type poolService struct {
	repoManager ports.RepoManager
	custody     ports.AssetTransferor
	entropy     ports.EntropySource
	scheduler   ports.SchedulerService

	autoDraw bool

	// serializes every mutating operation into a total order
	lock           sync.Mutex
	currentRoundId uint64
	stopped        bool

	eventsCh chan []domain.RoundEvent
}

func NewService(
	initialParams domain.PoolParams,
	repoManager ports.RepoManager,
	custody ports.AssetTransferor,
	entropy ports.EntropySource,
	scheduler ports.SchedulerService,
	autoDraw bool,
) (Service, error) {
	ctx := context.Background()

	params, err := repoManager.Params().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool params: %w", err)
	}
	if params == nil {
		if err := initialParams.Validate(); err != nil {
			return nil, fmt.Errorf("invalid pool params: %w", err)
		}
		if err := repoManager.Params().Upsert(ctx, initialParams); err != nil {
			return nil, fmt.Errorf("failed to store initial pool params: %w", err)
		}
	}

	svc := &poolService{
		repoManager: repoManager,
		custody:     custody,
		entropy:     entropy,
		scheduler:   scheduler,
		autoDraw:    autoDraw,
		eventsCh:    make(chan []domain.RoundEvent, 128),
	}

	if err := svc.bootstrapRound(ctx); err != nil {
		return nil, err
	}

	return svc, nil
}

func (s *poolService) Start() error {
	s.scheduler.Start()

	if !s.autoDraw {
		return nil
	}

	ctx := context.Background()

	s.lock.Lock()
	defer s.lock.Unlock()

	round, err := s.loadRound(ctx, s.currentRoundId)
	if err != nil {
		return err
	}
	if round.IsOpen() && round.ClosesAt > 0 || round.IsDrawing() {
		s.scheduleDraw(round.ClosesAt)
	}
	return nil
}

func (s *poolService) Stop() {
	s.scheduler.Stop()

	// the lock orders the close after any in-flight publish
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.eventsCh)
}

func (s *poolService) Contribute(
	ctx context.Context, caller, assetId string, amount uint64,
) (*RoundSummary, error) {
	if len(caller) <= 0 {
		return nil, ErrInvalidRecipient
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	params, err := s.getParams(ctx)
	if err != nil {
		return nil, err
	}
	if params.Paused {
		return nil, ErrPaused
	}

	asset, err := s.repoManager.Assets().GetAsset(ctx, assetId)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrAssetNotWhitelisted
	}
	if !asset.Active {
		return nil, domain.ErrAssetInactive
	}
	if amount < asset.MinContribution {
		return nil, domain.ErrBelowMinContribution
	}

	round, err := s.loadRound(ctx, s.currentRoundId)
	if err != nil {
		return nil, err
	}

	firstContribution := len(round.Contributions) <= 0

	events, err := round.RegisterContribution(
		caller, assetId, amount, asset.NormalizedValue(amount),
		params.ValuePerEntry, params.Capacity, params.RoundDuration, time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.custody.Pull(ctx, assetId, caller, amount); err != nil {
		return nil, fmt.Errorf("failed to pull contribution: %w", err)
	}

	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		// deposit taken but not recorded, hand it back
		if pushErr := s.custody.Push(ctx, assetId, caller, amount); pushErr != nil {
			log.WithError(pushErr).Error("failed to return unrecorded contribution")
		}
		return nil, err
	}
	s.publishEvents(events)

	if s.autoDraw {
		if round.IsDrawing() {
			go s.autoDrawNow()
		} else if firstContribution {
			s.scheduleDraw(round.ClosesAt)
		}
	}

	summary := newRoundSummary(round)
	return &summary, nil
}

func (s *poolService) RequestDraw(ctx context.Context, caller string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	params, err := s.getParams(ctx)
	if err != nil {
		return err
	}
	if caller != params.Keeper {
		return ErrUnauthorized
	}

	round, err := s.loadRound(ctx, s.currentRoundId)
	if err != nil {
		return err
	}
	if len(round.Winner) > 0 {
		return domain.ErrAlreadyDrawn
	}

	now := time.Now()
	events := make([]domain.RoundEvent, 0)

	if round.IsOpen() && round.ClosesAt > 0 && now.Unix() >= round.ClosesAt {
		flipped, err := round.StartDrawing(now)
		if err != nil {
			return err
		}
		events = append(events, flipped...)
	}
	if !round.IsDrawing() {
		return domain.ErrNotDrawable
	}

	if round.ParticipantCount() < params.MinParticipants {
		cancelled, err := round.Cancel(now)
		if err != nil {
			return err
		}
		events = append(events, cancelled...)

		if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
			return err
		}
		s.publishEvents(events)

		log.WithField("round", round.Id).Info("round cancelled for insufficient participation")
		return s.openNextRound(ctx)
	}

	sample, err := s.entropy.Sample(ctx)
	if err != nil {
		return fmt.Errorf("failed to sample entropy: %w", err)
	}
	drawHash := domain.MixEntropy(sample.PrevHash, sample.Timestamp, sample.Beacon)

	index, err := domain.WinningIndex(drawHash, round.TotalEntries)
	if err != nil {
		return err
	}
	winner, err := domain.PickWinner(round.Contributions, index)
	if err != nil {
		return err
	}

	drawn, err := round.ConcludeDraw(
		winner, index, hex.EncodeToString(drawHash), params.FeeBp, now,
	)
	if err != nil {
		return err
	}
	events = append(events, drawn...)

	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return err
	}
	s.publishEvents(events)
	s.entropy.Roll(drawHash)

	log.WithFields(log.Fields{
		"round":  round.Id,
		"winner": winner,
		"index":  index,
	}).Info("round drawn")

	return s.openNextRound(ctx)
}

func (s *poolService) RequestCancel(ctx context.Context, caller string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	params, err := s.getParams(ctx)
	if err != nil {
		return err
	}
	if caller != params.Keeper {
		return ErrUnauthorized
	}

	round, err := s.loadRound(ctx, s.currentRoundId)
	if err != nil {
		return err
	}

	events, err := round.CancelExpired(time.Now(), params.MinParticipants)
	if err != nil {
		return err
	}

	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return err
	}
	s.publishEvents(events)

	log.WithField("round", round.Id).Info("round cancelled by keeper")
	return s.openNextRound(ctx)
}

func (s *poolService) ClaimPrize(
	ctx context.Context, caller string, roundId uint64, indices []int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	params, err := s.getParams(ctx)
	if err != nil {
		return err
	}
	if !params.OutflowAllowed {
		return ErrOutflowDisabled
	}

	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return err
	}

	events, err := round.ClaimPrize(
		caller, indices, params.FeeBp, uuid.New().String(), time.Now(),
	)
	if err != nil {
		return err
	}

	claim, ok := events[0].(domain.PrizeClaimed)
	if !ok {
		return fmt.Errorf("unexpected claim event type")
	}

	// flags must be durable before any payment goes out
	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return err
	}
	s.publishEvents(events)

	for _, assetId := range sortedKeys(claim.Fees) {
		if fee := claim.Fees[assetId]; fee > 0 {
			if err := s.custody.Push(ctx, assetId, params.FeeRecipient, fee); err != nil {
				return fmt.Errorf("failed to pay fee for %s: %w", assetId, err)
			}
		}
	}
	for _, assetId := range sortedKeys(claim.Prizes) {
		if prize := claim.Prizes[assetId]; prize > 0 {
			if err := s.custody.Push(ctx, assetId, round.Winner, prize); err != nil {
				return fmt.Errorf("failed to pay prize for %s: %w", assetId, err)
			}
		}
	}

	log.WithFields(log.Fields{
		"round":  round.Id,
		"winner": round.Winner,
		"payout": claim.PayoutId,
	}).Info("prize claimed")

	return nil
}

func (s *poolService) Withdraw(
	ctx context.Context, caller string, roundId uint64, indices []int,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	params, err := s.getParams(ctx)
	if err != nil {
		return err
	}
	if !params.OutflowAllowed {
		return ErrOutflowDisabled
	}

	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return err
	}

	events, err := round.Withdraw(caller, indices, uuid.New().String(), time.Now())
	if err != nil {
		return err
	}

	refund, ok := events[0].(domain.RefundsWithdrawn)
	if !ok {
		return fmt.Errorf("unexpected refund event type")
	}

	// flags must be durable before any payment goes out
	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return err
	}
	s.publishEvents(events)

	for _, assetId := range sortedKeys(refund.Amounts) {
		if amount := refund.Amounts[assetId]; amount > 0 {
			if err := s.custody.Push(ctx, assetId, caller, amount); err != nil {
				return fmt.Errorf("failed to refund %s: %w", assetId, err)
			}
		}
	}

	log.WithFields(log.Fields{
		"round":       round.Id,
		"contributor": caller,
		"payout":      refund.PayoutId,
	}).Info("refund withdrawn")

	return nil
}

func (s *poolService) GetCurrentRoundId(_ context.Context) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.currentRoundId
}

func (s *poolService) GetRoundSummary(
	ctx context.Context, roundId uint64,
) (*RoundSummary, error) {
	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	summary := newRoundSummary(round)
	return &summary, nil
}

func (s *poolService) GetAssetBalances(
	ctx context.Context, roundId uint64,
) ([]AssetBalance, error) {
	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return nil, err
	}

	balances := round.NonzeroAssetBalances()
	list := make([]AssetBalance, 0, len(balances))
	for _, assetId := range sortedKeys(balances) {
		list = append(list, AssetBalance{AssetId: assetId, Balance: balances[assetId]})
	}
	return list, nil
}

func (s *poolService) GetContributionIndices(
	ctx context.Context, roundId uint64, contributor string,
) ([]int, error) {
	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	return round.ContributionIndicesOf(contributor), nil
}

func (s *poolService) GetParticipantTotals(
	ctx context.Context, roundId uint64, contributor string,
) (*ParticipantTotals, error) {
	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	return newParticipantTotals(round, contributor), nil
}

func (s *poolService) GetSnapshot(
	ctx context.Context, roundId uint64, contributor string,
) (*Snapshot, error) {
	round, err := s.loadRound(ctx, roundId)
	if err != nil {
		return nil, err
	}
	params, err := s.getParams(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.GetAssetBalances(ctx, roundId)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Round:       newRoundSummary(round),
		Balances:    balances,
		Participant: newParticipantTotals(round, contributor),
		Params:      *params,
	}, nil
}

func (s *poolService) GetEventsChannel(_ context.Context) <-chan []domain.RoundEvent {
	return s.eventsCh
}

func (s *poolService) bootstrapRound(ctx context.Context) error {
	// the round projection lags behind the event store, so the latest round
	// must come from the events themselves: a projection write lost to a
	// crash must never reopen a terminated round's history
	current, err := s.repoManager.Events().GetLatestRound(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest round: %w", err)
	}
	if current != nil && !current.IsEnded() {
		s.currentRoundId = current.Id
		return nil
	}

	nextId := uint64(1)
	if current != nil {
		nextId = current.Id + 1
	}

	round := domain.NewRound(nextId)
	events, err := round.Open()
	if err != nil {
		return err
	}
	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return err
	}
	s.currentRoundId = round.Id
	return nil
}

func (s *poolService) openNextRound(ctx context.Context) error {
	round := domain.NewRound(s.currentRoundId + 1)
	events, err := round.Open()
	if err != nil {
		return err
	}
	if _, err := s.repoManager.Events().Save(ctx, round.Id, events...); err != nil {
		return fmt.Errorf("failed to open round %d: %w", round.Id, err)
	}
	s.currentRoundId = round.Id
	s.publishEvents(events)

	log.WithField("round", round.Id).Info("round opened")
	return nil
}

func (s *poolService) loadRound(ctx context.Context, id uint64) (*domain.Round, error) {
	round, err := s.repoManager.Events().Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if round == nil || round.Status == domain.UndefinedStatus {
		return nil, ErrRoundNotFound
	}
	return round, nil
}

func (s *poolService) getParams(ctx context.Context) (*domain.PoolParams, error) {
	params, err := s.repoManager.Params().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool params: %w", err)
	}
	if params == nil {
		return nil, fmt.Errorf("pool params not initialized")
	}
	return params, nil
}

// publishEvents runs with s.lock held, never after the channel is closed.
func (s *poolService) publishEvents(events []domain.RoundEvent) {
	if s.stopped {
		return
	}
	select {
	case s.eventsCh <- events:
	default:
		log.Warn("events channel full, dropping round events")
	}
}

func (s *poolService) scheduleDraw(closesAt int64) {
	if closesAt <= 0 {
		return
	}
	at := closesAt + 1
	if !s.scheduler.AfterNow(at) {
		go s.autoDrawNow()
		return
	}
	if err := s.scheduler.ScheduleTaskOnce(at, s.autoDrawNow); err != nil {
		log.WithError(err).Warn("failed to schedule draw")
	}
}

func (s *poolService) autoDrawNow() {
	ctx := context.Background()

	params, err := s.getParams(ctx)
	if err != nil {
		log.WithError(err).Warn("auto draw skipped")
		return
	}
	if err := s.RequestDraw(ctx, params.Keeper); err != nil {
		log.WithError(err).Warn("auto draw failed")
	}
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
