package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// assetService handles asset business logic. Asset amounts are running
// balances: set here explicitly, adjusted by the transaction service.
type assetService struct {
	db               *gorm.DB
	assetTypeService AssetTypeServicer
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB, assetTypeService AssetTypeServicer) AssetServicer {
	return &assetService{db: db, assetTypeService: assetTypeService}
}

// ListAssets returns the user's active assets with their type. Before the
// table exists it returns an empty list.
func (s *assetService) ListAssets(ctx context.Context, userID uint) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.db.WithContext(ctx).
		Preload("AssetType").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("name ASC").
		Find(&assets).Error
	if err != nil {
		if database.IsMissingTable(err) {
			logger.Get().Warnw("assets table missing, serving empty list", "user_id", userID)
			return []models.Asset{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}

// GetAsset returns an active asset owned by the user.
func (s *assetService) GetAsset(ctx context.Context, userID, id uint) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).
		Preload("AssetType").
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// CreateAsset creates an asset with an explicit starting amount.
func (s *assetService) CreateAsset(ctx context.Context, userID uint, input AssetInput) (*models.Asset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
	}
	if input.AssetTypeID == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset type is required")
	}

	assetType, err := s.assetTypeService.GetAssetType(ctx, userID, input.AssetTypeID)
	if err != nil {
		return nil, err
	}

	asset := &models.Asset{
		UserID:      userID,
		Name:        name,
		AssetTypeID: assetType.ID,
		Amount:      input.Amount.Round(2),
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	asset.AssetType = assetType
	return asset, nil
}

// UpdateAsset changes the given fields. Setting Amount is a manual balance
// correction and does not create a transaction.
func (s *assetService) UpdateAsset(ctx context.Context, userID, id uint, update AssetUpdate) (*models.Asset, error) {
	asset, err := s.GetAsset(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name cannot be empty")
		}
		changes["name"] = name
	}
	if update.AssetTypeID != nil && *update.AssetTypeID != asset.AssetTypeID {
		if _, err := s.assetTypeService.GetAssetType(ctx, userID, *update.AssetTypeID); err != nil {
			return nil, err
		}
		changes["asset_type_id"] = *update.AssetTypeID
	}
	if update.Amount != nil {
		changes["amount"] = update.Amount.Round(2)
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}

	if len(changes) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Asset{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(changes).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAsset(ctx, userID, id)
}

// DeleteAsset soft-deletes an asset. Transactions keep their reference.
func (s *assetService) DeleteAsset(ctx context.Context, userID, id uint) error {
	result := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

// GetSummary totals the user's active assets, overall and per type.
func (s *assetService) GetSummary(ctx context.Context, userID uint) (*AssetSummary, error) {
	var rows []AssetTypeTotal
	err := s.db.WithContext(ctx).
		Table("assets").
		Select("assets.asset_type_id AS asset_type_id, COALESCE(asset_types.name, '') AS name, COALESCE(SUM(assets.amount), 0) AS total, COUNT(*) AS count").
		Joins("LEFT JOIN asset_types ON asset_types.id = assets.asset_type_id").
		Where("assets.user_id = ? AND assets.is_active = ?", userID, true).
		Group("assets.asset_type_id, asset_types.name").
		Order("assets.asset_type_id").
		Scan(&rows).Error
	if err != nil {
		if database.IsMissingTable(err) {
			return &AssetSummary{Total: decimal.Zero, ByType: []AssetTypeTotal{}}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &AssetSummary{Total: decimal.Zero, ByType: rows}
	if summary.ByType == nil {
		summary.ByType = []AssetTypeTotal{}
	}
	for _, row := range rows {
		summary.Total = summary.Total.Add(row.Total)
		summary.Count += row.Count
	}
	return summary, nil
}
