package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tombolabs/tombola/internal/core/domain"
)

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(config ...interface{}) (domain.AssetRepository, error) {
	db, err := extractDb(config...)
	if err != nil {
		return nil, err
	}
	return &assetRepository{db}, nil
}

func (r *assetRepository) AddAsset(
	ctx context.Context, asset domain.SupportedAsset,
) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO assets (
			id, precision, active, min_contribution, relative_worth_bp
		) VALUES (?, ?, ?, ?, ?)`,
		asset.Id, asset.Precision, boolToInt(asset.Active),
		asset.MinContribution, asset.RelativeWorthBp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset %s: %w", asset.Id, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count <= 0 {
		return domain.ErrAssetAlreadyWhitelisted
	}
	return nil
}

func (r *assetRepository) UpdateAsset(
	ctx context.Context, asset domain.SupportedAsset,
) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE assets SET precision = ?, active = ?, min_contribution = ?,
			relative_worth_bp = ?
		 WHERE id = ?`,
		asset.Precision, boolToInt(asset.Active), asset.MinContribution,
		asset.RelativeWorthBp, asset.Id,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", asset.Id, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count <= 0 {
		return domain.ErrAssetNotWhitelisted
	}
	return nil
}

func (r *assetRepository) RemoveAsset(ctx context.Context, assetId string) error {
	result, err := r.db.ExecContext(
		ctx, "DELETE FROM assets WHERE id = ?", assetId,
	)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", assetId, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if count <= 0 {
		return domain.ErrAssetNotWhitelisted
	}
	return nil
}

func (r *assetRepository) GetAsset(
	ctx context.Context, assetId string,
) (*domain.SupportedAsset, error) {
	var active int
	asset := domain.SupportedAsset{}
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT id, precision, active, min_contribution, relative_worth_bp
		 FROM assets WHERE id = ?`,
		assetId,
	).Scan(
		&asset.Id, &asset.Precision, &active, &asset.MinContribution,
		&asset.RelativeWorthBp,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", assetId, err)
	}
	asset.Active = active != 0
	return &asset, nil
}

func (r *assetRepository) GetAllAssets(
	ctx context.Context,
) ([]domain.SupportedAsset, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, precision, active, min_contribution, relative_worth_bp
		 FROM assets`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	// nolint:all
	defer rows.Close()

	assets := make([]domain.SupportedAsset, 0)
	for rows.Next() {
		var active int
		asset := domain.SupportedAsset{}
		if err := rows.Scan(
			&asset.Id, &asset.Precision, &active, &asset.MinContribution,
			&asset.RelativeWorthBp,
		); err != nil {
			return nil, err
		}
		asset.Active = active != 0
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func (r *assetRepository) Close() {
	// nolint:all
	r.db.Close()
}
