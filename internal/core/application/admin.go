package application

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tombolabs/tombola/internal/core/domain"
	"github.com/tombolabs/tombola/internal/core/ports"
)

// ParamsUpdate carries the parameter changes of one admin call; nil fields
// are left untouched.
type ParamsUpdate struct {
	ValuePerEntry   *uint64
	RoundDuration   *int64
	FeeBp           *uint64
	FeeRecipient    *string
	Capacity        *uint64
	MinParticipants *uint64
	Keeper          *string
	OutflowAllowed  *bool
	Paused          *bool
}

type AdminService interface {
	AddAsset(ctx context.Context, caller string, asset domain.SupportedAsset) error
	EditAsset(ctx context.Context, caller string, asset domain.SupportedAsset) error
	RemoveAsset(ctx context.Context, caller, assetId string) error
	ListAssets(ctx context.Context) ([]domain.SupportedAsset, error)

	GetParams(ctx context.Context) (*domain.PoolParams, error)
	UpdateParams(ctx context.Context, caller string, update ParamsUpdate) error

	Rescue(ctx context.Context, caller, assetId, recipient string, amount uint64) error
}

type adminService struct {
	owner       string
	repoManager ports.RepoManager
	custody     ports.AssetTransferor

	lock sync.Mutex
}

func NewAdminService(
	owner string, repoManager ports.RepoManager, custody ports.AssetTransferor,
) AdminService {
	return &adminService{
		owner:       owner,
		repoManager: repoManager,
		custody:     custody,
	}
}

func (a *adminService) AddAsset(
	ctx context.Context, caller string, asset domain.SupportedAsset,
) error {
	if caller != a.owner {
		return ErrUnauthorized
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	existing, err := a.repoManager.Assets().GetAsset(ctx, asset.Id)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrAssetAlreadyWhitelisted
	}

	if err := a.repoManager.Assets().AddAsset(ctx, asset); err != nil {
		return err
	}

	log.WithField("asset", asset.Id).Info("asset whitelisted")
	return nil
}

func (a *adminService) EditAsset(
	ctx context.Context, caller string, asset domain.SupportedAsset,
) error {
	if caller != a.owner {
		return ErrUnauthorized
	}
	if err := asset.Validate(); err != nil {
		return err
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	existing, err := a.repoManager.Assets().GetAsset(ctx, asset.Id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrAssetNotWhitelisted
	}

	if err := a.repoManager.Assets().UpdateAsset(ctx, asset); err != nil {
		return err
	}

	log.WithField("asset", asset.Id).Info("asset updated")
	return nil
}

// RemoveAsset delists an asset: new contributions stop immediately while
// existing ledger entries referencing it remain valid.
func (a *adminService) RemoveAsset(ctx context.Context, caller, assetId string) error {
	if caller != a.owner {
		return ErrUnauthorized
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	existing, err := a.repoManager.Assets().GetAsset(ctx, assetId)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrAssetNotWhitelisted
	}

	if err := a.repoManager.Assets().RemoveAsset(ctx, assetId); err != nil {
		return err
	}

	log.WithField("asset", assetId).Info("asset removed from whitelist")
	return nil
}

func (a *adminService) ListAssets(ctx context.Context) ([]domain.SupportedAsset, error) {
	return a.repoManager.Assets().GetAllAssets(ctx)
}

func (a *adminService) GetParams(ctx context.Context) (*domain.PoolParams, error) {
	return a.repoManager.Params().Get(ctx)
}

func (a *adminService) UpdateParams(
	ctx context.Context, caller string, update ParamsUpdate,
) error {
	if caller != a.owner {
		return ErrUnauthorized
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	params, err := a.repoManager.Params().Get(ctx)
	if err != nil {
		return err
	}
	if params == nil {
		params = &domain.PoolParams{}
	}

	if update.ValuePerEntry != nil {
		params.ValuePerEntry = *update.ValuePerEntry
	}
	if update.RoundDuration != nil {
		params.RoundDuration = *update.RoundDuration
	}
	if update.FeeBp != nil {
		params.FeeBp = *update.FeeBp
	}
	if update.FeeRecipient != nil {
		params.FeeRecipient = *update.FeeRecipient
	}
	if update.Capacity != nil {
		params.Capacity = *update.Capacity
	}
	if update.MinParticipants != nil {
		params.MinParticipants = *update.MinParticipants
	}
	if update.Keeper != nil {
		params.Keeper = *update.Keeper
	}
	if update.OutflowAllowed != nil {
		params.OutflowAllowed = *update.OutflowAllowed
	}
	if update.Paused != nil {
		params.Paused = *update.Paused
	}

	if err := params.Validate(); err != nil {
		return err
	}

	if err := a.repoManager.Params().Upsert(ctx, *params); err != nil {
		return err
	}

	log.Info("pool params updated")
	return nil
}

// Rescue moves stranded custody balances of a registered asset to an
// arbitrary recipient. Owner-only escape hatch for funds left behind by
// failed payouts.
func (a *adminService) Rescue(
	ctx context.Context, caller, assetId, recipient string, amount uint64,
) error {
	if caller != a.owner {
		return ErrUnauthorized
	}
	if len(recipient) <= 0 {
		return ErrInvalidRecipient
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	existing, err := a.repoManager.Assets().GetAsset(ctx, assetId)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrAssetNotWhitelisted
	}

	if err := a.custody.Push(ctx, assetId, recipient, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"asset":     assetId,
		"recipient": recipient,
		"amount":    amount,
	}).Warn("emergency rescue executed")
	return nil
}
