package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// balanceService handles the initial balance and overall totals.
type balanceService struct {
	db *gorm.DB
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB) BalanceServicer {
	return &balanceService{db: db}
}

// GetInitialBalance returns the user's starting capital, zero when unset.
func (s *balanceService) GetInitialBalance(ctx context.Context, userID uint) (*models.InitialBalance, error) {
	var balance models.InitialBalance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.InitialBalance{UserID: userID, Amount: decimal.Zero}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &balance, nil
}

// SetInitialBalance upserts the single initial balance row of the user.
func (s *balanceService) SetInitialBalance(ctx context.Context, userID uint, amount decimal.Decimal) (*models.InitialBalance, error) {
	row := &models.InitialBalance{UserID: userID, Amount: amount.Round(2)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetInitialBalance(ctx, userID)
}

// GetTotalBalance combines the initial balance with all-time income and
// expense, and reports the sum of active asset amounts alongside.
func (s *balanceService) GetTotalBalance(ctx context.Context, userID uint) (*TotalBalance, error) {
	initial, err := s.GetInitialBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var rows []struct {
		Type  models.TransactionType
		Total decimal.Decimal
	}
	if err := db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := &TotalBalance{
		InitialBalance: initial.Amount,
		TotalIncome:    decimal.Zero,
		TotalExpense:   decimal.Zero,
		AssetTotal:     decimal.Zero,
	}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			total.TotalIncome = r.Total
		case models.TransactionTypeExpense:
			total.TotalExpense = r.Total
		}
	}
	total.CurrentBalance = total.InitialBalance.Add(total.TotalIncome).Sub(total.TotalExpense)

	var assets struct{ Total decimal.Decimal }
	if err := db.Model(&models.Asset{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total.AssetTotal = assets.Total
	return total, nil
}
