package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tombolabs/tombola/internal/core/domain"
)

type roundRepository struct {
	db *sql.DB
}

func NewRoundRepository(config ...interface{}) (domain.RoundRepository, error) {
	db, err := extractDb(config...)
	if err != nil {
		return nil, err
	}
	return &roundRepository{db}, nil
}

func (r *roundRepository) AddOrUpdateRound(
	ctx context.Context, round domain.Round,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// nolint:all
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO rounds (
			id, status, opened_at, closes_at, drawn_at, ended_at, winner,
			winning_index, draw_hash, total_normalized_value, total_entries,
			fee_owed, prize_claimed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			opened_at = excluded.opened_at,
			closes_at = excluded.closes_at,
			drawn_at = excluded.drawn_at,
			ended_at = excluded.ended_at,
			winner = excluded.winner,
			winning_index = excluded.winning_index,
			draw_hash = excluded.draw_hash,
			total_normalized_value = excluded.total_normalized_value,
			total_entries = excluded.total_entries,
			fee_owed = excluded.fee_owed,
			prize_claimed = excluded.prize_claimed`,
		round.Id, int(round.Status), round.OpenedAt, round.ClosesAt,
		round.DrawnAt, round.EndedAt, round.Winner, round.WinningIndex,
		round.DrawHash, round.TotalNormalizedValue, round.TotalEntries,
		round.FeeOwed, boolToInt(round.PrizeClaimed),
	); err != nil {
		return fmt.Errorf("failed to upsert round %d: %w", round.Id, err)
	}

	// contributions and balances are rewritten wholesale, the aggregate is
	// the source of truth
	if _, err := tx.ExecContext(
		ctx, "DELETE FROM contributions WHERE round_id = ?", round.Id,
	); err != nil {
		return err
	}
	for i, contribution := range round.Contributions {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO contributions (
				round_id, position, contributor, asset_id, raw_amount,
				normalized_value, entry_count, claimed
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			round.Id, i, contribution.Contributor, contribution.AssetId,
			contribution.RawAmount, contribution.NormalizedValue,
			contribution.EntryCount, boolToInt(contribution.Claimed),
		); err != nil {
			return fmt.Errorf("failed to insert contribution %d of round %d: %w", i, round.Id, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx, "DELETE FROM round_assets WHERE round_id = ?", round.Id,
	); err != nil {
		return err
	}
	for assetId, balance := range round.AssetBalances {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO round_assets (round_id, asset_id, balance, paid_out)
			 VALUES (?, ?, ?, ?)`,
			round.Id, assetId, balance, round.PaidOut[assetId],
		); err != nil {
			return err
		}
	}
	for assetId, paidOut := range round.PaidOut {
		if _, hasBalance := round.AssetBalances[assetId]; hasBalance {
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO round_assets (round_id, asset_id, balance, paid_out)
			 VALUES (?, ?, 0, ?)`,
			round.Id, assetId, paidOut,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *roundRepository) GetRoundWithId(
	ctx context.Context, id uint64,
) (*domain.Round, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, status, opened_at, closes_at, drawn_at, ended_at, winner,
			winning_index, draw_hash, total_normalized_value, total_entries,
			fee_owed, prize_claimed
		 FROM rounds WHERE id = ?`,
		id,
	)
	round, err := scanRound(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("round %d not found", id)
		}
		return nil, err
	}
	if err := r.hydrateRound(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

func (r *roundRepository) GetCurrentRound(
	ctx context.Context,
) (*domain.Round, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, status, opened_at, closes_at, drawn_at, ended_at, winner,
			winning_index, draw_hash, total_normalized_value, total_entries,
			fee_owed, prize_claimed
		 FROM rounds ORDER BY id DESC LIMIT 1`,
	)
	round, err := scanRound(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.hydrateRound(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

func (r *roundRepository) GetRoundIds(
	ctx context.Context, startedAfter, startedBefore int64,
) ([]uint64, error) {
	query := "SELECT id FROM rounds WHERE ended_at > 0"
	args := make([]interface{}, 0, 2)
	if startedAfter > 0 {
		query += " AND opened_at > ?"
		args = append(args, startedAfter)
	}
	if startedBefore > 0 {
		query += " AND opened_at < ?"
		args = append(args, startedBefore)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	// nolint:all
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *roundRepository) Close() {
	// nolint:all
	r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRound(row rowScanner) (*domain.Round, error) {
	var (
		status       int
		prizeClaimed int
	)
	round := &domain.Round{
		Participants:  make(map[string]struct{}),
		AssetBalances: make(map[string]uint64),
		PaidOut:       make(map[string]uint64),
	}
	if err := row.Scan(
		&round.Id, &status, &round.OpenedAt, &round.ClosesAt, &round.DrawnAt,
		&round.EndedAt, &round.Winner, &round.WinningIndex, &round.DrawHash,
		&round.TotalNormalizedValue, &round.TotalEntries, &round.FeeOwed,
		&prizeClaimed,
	); err != nil {
		return nil, err
	}
	round.Status = domain.RoundStatus(status)
	round.PrizeClaimed = prizeClaimed != 0
	return round, nil
}

func (r *roundRepository) hydrateRound(ctx context.Context, round *domain.Round) error {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT contributor, asset_id, raw_amount, normalized_value,
			entry_count, claimed
		 FROM contributions WHERE round_id = ? ORDER BY position`,
		round.Id,
	)
	if err != nil {
		return err
	}
	// nolint:all
	defer rows.Close()

	for rows.Next() {
		var claimed int
		contribution := domain.Contribution{RoundId: round.Id}
		if err := rows.Scan(
			&contribution.Contributor, &contribution.AssetId,
			&contribution.RawAmount, &contribution.NormalizedValue,
			&contribution.EntryCount, &claimed,
		); err != nil {
			return err
		}
		contribution.Claimed = claimed != 0
		round.Contributions = append(round.Contributions, contribution)
		round.Participants[contribution.Contributor] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	assetRows, err := r.db.QueryContext(
		ctx,
		"SELECT asset_id, balance, paid_out FROM round_assets WHERE round_id = ?",
		round.Id,
	)
	if err != nil {
		return err
	}
	// nolint:all
	defer assetRows.Close()

	for assetRows.Next() {
		var (
			assetId string
			balance uint64
			paidOut uint64
		)
		if err := assetRows.Scan(&assetId, &balance, &paidOut); err != nil {
			return err
		}
		if balance > 0 {
			round.AssetBalances[assetId] = balance
		}
		if paidOut > 0 {
			round.PaidOut[assetId] = paidOut
		}
	}
	return assetRows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
