package application

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPaused           = errors.New("contributions are paused")
	ErrOutflowDisabled  = errors.New("outbound payments are disabled")
	ErrInvalidRecipient = errors.New("missing or invalid recipient")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrRoundNotFound    = errors.New("round not found")
)
