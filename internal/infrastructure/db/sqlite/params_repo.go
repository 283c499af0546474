package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tombolabs/tombola/internal/core/domain"
)

type paramsRepository struct {
	db *sql.DB
}

func NewParamsRepository(config ...interface{}) (domain.ParamsRepository, error) {
	db, err := extractDb(config...)
	if err != nil {
		return nil, err
	}
	return &paramsRepository{db}, nil
}

func (r *paramsRepository) Get(ctx context.Context) (*domain.PoolParams, error) {
	var outflowAllowed, paused int
	params := domain.PoolParams{}
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT value_per_entry, round_duration, fee_bp, fee_recipient,
			capacity, min_participants, keeper, outflow_allowed, paused
		 FROM pool_params WHERE id = 1`,
	).Scan(
		&params.ValuePerEntry, &params.RoundDuration, &params.FeeBp,
		&params.FeeRecipient, &params.Capacity, &params.MinParticipants,
		&params.Keeper, &outflowAllowed, &paused,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pool params: %w", err)
	}
	params.OutflowAllowed = outflowAllowed != 0
	params.Paused = paused != 0
	return &params, nil
}

func (r *paramsRepository) Upsert(ctx context.Context, params domain.PoolParams) error {
	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pool_params (
			id, value_per_entry, round_duration, fee_bp, fee_recipient,
			capacity, min_participants, keeper, outflow_allowed, paused
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value_per_entry = excluded.value_per_entry,
			round_duration = excluded.round_duration,
			fee_bp = excluded.fee_bp,
			fee_recipient = excluded.fee_recipient,
			capacity = excluded.capacity,
			min_participants = excluded.min_participants,
			keeper = excluded.keeper,
			outflow_allowed = excluded.outflow_allowed,
			paused = excluded.paused`,
		params.ValuePerEntry, params.RoundDuration, params.FeeBp,
		params.FeeRecipient, params.Capacity, params.MinParticipants,
		params.Keeper, boolToInt(params.OutflowAllowed), boolToInt(params.Paused),
	); err != nil {
		return fmt.Errorf("failed to upsert pool params: %w", err)
	}
	return nil
}

func (r *paramsRepository) Close() {
	// nolint:all
	r.db.Close()
}
