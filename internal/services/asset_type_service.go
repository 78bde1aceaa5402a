package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// assetTypeService handles asset type business logic.
type assetTypeService struct {
	db *gorm.DB
}

// NewAssetTypeService creates a new AssetTypeServicer.
func NewAssetTypeService(db *gorm.DB) AssetTypeServicer {
	return &assetTypeService{db: db}
}

// ListAssetTypes returns the default types followed by the user's own types.
// Before the table exists it serves the built-in defaults.
func (s *assetTypeService) ListAssetTypes(ctx context.Context, userID uint) ([]models.AssetType, error) {
	var types []models.AssetType
	err := s.db.WithContext(ctx).
		Where("is_default = ? OR user_id = ?", true, userID).
		Order("is_default DESC, name ASC").
		Find(&types).Error
	if err != nil {
		if database.IsMissingTable(err) {
			logger.Get().Warnw("asset_types table missing, serving built-in defaults", "user_id", userID)
			return models.DefaultAssetTypes(), nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return types, nil
}

// GetAssetType returns a default type or one owned by the user.
func (s *assetTypeService) GetAssetType(ctx context.Context, userID, id uint) (*models.AssetType, error) {
	var assetType models.AssetType
	err := s.db.WithContext(ctx).
		Where("id = ? AND (is_default = ? OR user_id = ?)", id, true, userID).
		First(&assetType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &assetType, nil
}

// CreateAssetType creates a user-owned asset type.
func (s *assetTypeService) CreateAssetType(ctx context.Context, userID uint, input AssetTypeInput) (*models.AssetType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset type name is required")
	}
	if err := s.checkNameFree(ctx, userID, name, 0); err != nil {
		return nil, err
	}

	assetType := &models.AssetType{
		Name:        name,
		Icon:        input.Icon,
		Color:       input.Color,
		Description: input.Description,
		UserID:      &userID,
	}
	if err := s.db.WithContext(ctx).Create(assetType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assetType, nil
}

// UpdateAssetType changes a user-owned asset type. Defaults are immutable.
func (s *assetTypeService) UpdateAssetType(ctx context.Context, userID, id uint, input AssetTypeInput) (*models.AssetType, error) {
	assetType, err := s.ownedForWrite(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" && name != assetType.Name {
		if err := s.checkNameFree(ctx, userID, name, id); err != nil {
			return nil, err
		}
		assetType.Name = name
	}
	if input.Icon != "" {
		assetType.Icon = input.Icon
	}
	if input.Color != "" {
		assetType.Color = input.Color
	}
	if input.Description != "" {
		assetType.Description = input.Description
	}

	if err := s.db.WithContext(ctx).Save(assetType).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assetType, nil
}

// DeleteAssetType removes a user-owned asset type that no asset uses.
// Soft-deleted assets still count since they keep their transaction history.
func (s *assetTypeService) DeleteAssetType(ctx context.Context, userID, id uint) error {
	assetType, err := s.ownedForWrite(ctx, userID, id)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var inUse int64
	if err := db.Model(&models.Asset{}).
		Where("asset_type_id = ?", id).
		Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrAssetTypeInUse
	}

	if err := db.Delete(assetType).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ownedForWrite loads a type the user may change: defaults are rejected with
// 403, foreign types look missing.
func (s *assetTypeService) ownedForWrite(ctx context.Context, userID, id uint) (*models.AssetType, error) {
	var assetType models.AssetType
	if err := s.db.WithContext(ctx).First(&assetType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetTypeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if assetType.IsDefault || assetType.UserID == nil {
		return nil, apperrors.ErrDefaultAssetTypeLocked
	}
	if !models.IsOwner(&assetType, userID) {
		return nil, apperrors.ErrAssetTypeNotFound
	}
	return &assetType, nil
}

func (s *assetTypeService) checkNameFree(ctx context.Context, userID uint, name string, exceptID uint) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.AssetType{}).
		Where("LOWER(name) = LOWER(?) AND (is_default = ? OR user_id = ?)", name, true, userID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateAssetTypeName
	}
	return nil
}
