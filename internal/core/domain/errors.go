package domain

import "errors"

var (
	// registry
	ErrAssetAlreadyWhitelisted = errors.New("asset already whitelisted")
	ErrAssetNotWhitelisted     = errors.New("asset not whitelisted")
	ErrAssetInactive           = errors.New("asset not active")
	ErrInvalidWorth            = errors.New("relative worth out of range")

	// contributions
	ErrBelowEntryThreshold  = errors.New("contribution below entry threshold")
	ErrBelowMinContribution = errors.New("contribution below asset minimum")

	// round lifecycle
	ErrRoundNotOpen        = errors.New("round is not open")
	ErrRoundExpired        = errors.New("round deadline has passed")
	ErrRoundFull           = errors.New("round is full")
	ErrNotDrawable         = errors.New("round is not drawable")
	ErrAlreadyDrawn        = errors.New("round already has a winner")
	ErrDeadlineNotReached  = errors.New("round deadline not reached")
	ErrTooManyParticipants = errors.New("too many participants to cancel")
	ErrNoEligibleEntries   = errors.New("no eligible entries")

	// settlement
	ErrRoundNotDrawn     = errors.New("round is not drawn")
	ErrNotWinner         = errors.New("caller is not the winner")
	ErrAlreadyClaimed    = errors.New("prize already claimed")
	ErrRoundNotCancelled = errors.New("round is not cancelled")
	ErrInvalidIndex      = errors.New("contribution index out of range")
	ErrNotOwner          = errors.New("caller does not own the contribution")
	ErrAlreadyWithdrawn  = errors.New("contribution already withdrawn")
)
