package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// transactionService handles transactions and keeps the amount of linked
// assets in step with them.
//
// Every create, update and delete runs as one atomic unit: the transaction
// row and the asset delta commit together or not at all. Concurrent writes to
// the same asset are serialized only by the row lock the store takes for the
// UPDATE statement.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		categoryService: categoryService,
	}
}

// normalizeTransactionInput validates the parts of input that need no
// database access and fills in defaults.
func normalizeTransactionInput(input *TransactionInput) error {
	if !input.Type.IsValid() {
		return apperrors.ErrInvalidTransactionType
	}
	input.Amount = input.Amount.Round(2)
	if !input.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	if input.Date.IsZero() {
		now := time.Now()
		input.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	}
	input.Description = strings.TrimSpace(input.Description)
	return nil
}

// applyDelta adds delta to the amount of the asset owned by ownerID. A nil
// asset or a zero delta is a no-op. An UPDATE that matches no row aborts the
// surrounding unit.
func applyDelta(tx *gorm.DB, ownerID uint, assetID *uint, delta decimal.Decimal) error {
	if assetID == nil || delta.IsZero() {
		return nil
	}

	result := tx.Model(&models.Asset{}).
		Where("id = ? AND user_id = ?", *assetID, ownerID).
		Update("amount", gorm.Expr("amount + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrTransactionFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Wrap(apperrors.ErrTransactionFailed, fmt.Errorf("asset %d of user %d not updated", *assetID, ownerID))
	}
	return nil
}

// checkReferences verifies that the category is visible to and the asset is
// owned by ownerID. The asset must be active unless it is the one the row
// already points at.
func checkReferences(tx *gorm.DB, ownerID uint, input TransactionInput, currentAssetID *uint) error {
	if input.CategoryID != nil {
		var count int64
		if err := tx.Model(&models.Category{}).Scopes(visibleTo(ownerID)).
			Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrTransactionFailed, err)
		}
		if count == 0 {
			return apperrors.ErrCategoryNotFound
		}
	}

	if input.AssetID != nil {
		q := tx.Model(&models.Asset{}).Where("id = ? AND user_id = ?", *input.AssetID, ownerID)
		if currentAssetID == nil || *currentAssetID != *input.AssetID {
			q = q.Where("is_active = ?", true)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrTransactionFailed, err)
		}
		if count == 0 {
			return apperrors.ErrAssetNotFound
		}
	}
	return nil
}

// CreateTransaction inserts the transaction and applies its delta to the
// linked asset: +amount for income, -amount for expense, nothing for
// transfers.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uint, input TransactionInput) (*models.Transaction, error) {
	if userID == Unscoped {
		return nil, apperrors.ErrUnauthorized
	}
	if err := normalizeTransactionInput(&input); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Amount:      input.Amount,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		Date:        input.Date,
		Account:     input.Account,
		Card:        input.Card,
		Memo:        input.Memo,
		AssetID:     input.AssetID,
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := checkReferences(tx, userID, input, nil); err != nil {
			return err
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrTransactionFailed, err)
		}
		return applyDelta(tx, userID, transaction.AssetID, transaction.Type.BalanceDelta(transaction.Amount))
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransaction(ctx, userID, transaction.ID)
}

// loadForUpdate reads a transaction inside a unit, owner-filtered unless
// userID is Unscoped.
func loadForUpdate(tx *gorm.DB, userID, id uint) (*models.Transaction, error) {
	q := tx.Where("id = ?", id)
	if userID != Unscoped {
		q = q.Where("user_id = ?", userID)
	}

	var transaction models.Transaction
	if err := q.First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrTransactionFailed, err)
	}
	return &transaction, nil
}

// UpdateTransaction replaces a transaction. The previous effect is reversed
// on the previous asset before the new effect is applied to the new asset,
// so moving a transaction between assets nets out on both.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, id uint, input TransactionInput) (*models.Transaction, error) {
	if err := normalizeTransactionInput(&input); err != nil {
		return nil, err
	}

	var ownerID uint
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		old, err := loadForUpdate(tx, userID, id)
		if err != nil {
			return err
		}
		ownerID = old.UserID

		if err := checkReferences(tx, ownerID, input, old.AssetID); err != nil {
			return err
		}

		if err := applyDelta(tx, ownerID, old.AssetID, old.Type.BalanceDelta(old.Amount).Neg()); err != nil {
			return err
		}

		err = tx.Model(old).Updates(map[string]interface{}{
			"amount":      input.Amount,
			"type":        input.Type,
			"date":        input.Date,
			"description": input.Description,
			"category_id": input.CategoryID,
			"asset_id":    input.AssetID,
			"account":     input.Account,
			"card":        input.Card,
			"memo":        input.Memo,
		}).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrTransactionFailed, err)
		}

		return applyDelta(tx, ownerID, input.AssetID, input.Type.BalanceDelta(input.Amount))
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransaction(ctx, ownerID, id)
}

// DeleteTransaction reverses the transaction's effect on its asset and
// removes the row.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, id uint) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		old, err := loadForUpdate(tx, userID, id)
		if err != nil {
			return err
		}

		if err := applyDelta(tx, old.UserID, old.AssetID, old.Type.BalanceDelta(old.Amount).Neg()); err != nil {
			return err
		}

		if err := tx.Delete(&models.Transaction{}, old.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrTransactionFailed, err)
		}
		return nil
	})
}

// GetTransaction retrieves a transaction with its category and asset,
// owner-filtered unless userID is Unscoped.
func (s *transactionService) GetTransaction(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	q := s.db.WithContext(ctx).Preload("Category").Preload("Asset").Where("id = ?", id)
	if userID != Unscoped {
		q = q.Where("user_id = ?", userID)
	}

	var transaction models.Transaction
	if err := q.First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, userID uint, filter TransactionFilter, page pagination.PageRequest) (*pagination.Page[models.Transaction], error) {
	page.Normalize()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base, err := s.applyFilters(ctx, base, userID, filter)
	if err != nil {
		return nil, err
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").Preload("Asset").
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(transactions, page, totalItems)
	return &result, nil
}

func (s *transactionService) applyFilters(ctx context.Context, q *gorm.DB, userID uint, f TransactionFilter) (*gorm.DB, error) {
	if f.FromDate != nil {
		q = q.Where("date >= ?", models.FormatDate(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date < ?", models.FormatDate(f.ToDate.AddDate(0, 0, 1)))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		if f.IncludeChildren {
			ids, err := s.categoryService.DescendantIDs(ctx, userID, *f.CategoryID)
			if err != nil {
				return nil, err
			}
			q = q.Where("category_id IN ?", append([]uint{*f.CategoryID}, ids...))
		} else {
			q = q.Where("category_id = ?", *f.CategoryID)
		}
	}
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		q = q.Where("description LIKE ? OR memo LIKE ?", like, like)
	}
	return q, nil
}

// monthBounds validates year/month and returns the [first, next first)
// dates of the month.
func monthBounds(year, month int) (string, string, error) {
	if year < 1900 || year > 9999 || month < 1 || month > 12 {
		return "", "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid year or month")
	}
	start, end := models.MonthRange(year, month, time.Local)
	return models.FormatDate(start), models.FormatDate(end), nil
}

// ListMonthlyTransactions returns every transaction of the user dated in the
// given month, newest first.
func (s *transactionService) ListMonthlyTransactions(ctx context.Context, userID uint, year, month int) ([]models.Transaction, error) {
	start, end, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Category").Preload("Asset").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetMonthlyStats totals income and expense of one month.
func (s *transactionService) GetMonthlyStats(ctx context.Context, userID uint, year, month int) (*MonthlyStats, error) {
	start, end, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Type  models.TransactionType
		Count int64
		Total decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &MonthlyStats{
		Year:         year,
		Month:        month,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, r := range rows {
		stats.TransactionCount += r.Count
		switch r.Type {
		case models.TransactionTypeIncome:
			stats.TotalIncome = stats.TotalIncome.Add(r.Total)
		case models.TransactionTypeExpense:
			stats.TotalExpense = stats.TotalExpense.Add(r.Total)
		}
	}
	stats.Net = stats.TotalIncome.Sub(stats.TotalExpense)
	return stats, nil
}

// GetCategoryStats totals income and expense of one month per category,
// largest first. Uncategorized transactions are grouped under a nil id.
func (s *transactionService) GetCategoryStats(ctx context.Context, userID uint, year, month int) ([]CategoryStat, error) {
	start, end, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	stats := []CategoryStat{}
	if err := s.db.WithContext(ctx).Table("transactions").
		Select("transactions.category_id AS category_id, "+
			"COALESCE(categories.name, '') AS category_name, "+
			"COALESCE(categories.color, '') AS category_color, "+
			"transactions.type AS type, "+
			"COALESCE(SUM(transactions.amount), 0) AS total, "+
			"COUNT(*) AS count").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.date >= ? AND transactions.date < ?", userID, start, end).
		Where("transactions.type IN ?", []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}).
		Group("transactions.category_id, categories.name, categories.color, transactions.type").
		Order("total DESC").
		Scan(&stats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stats, nil
}
