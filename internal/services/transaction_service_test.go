package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func newTransactionService(db *gorm.DB) TransactionServicer {
	return NewTransactionService(db, NewCategoryService(db))
}

func assetAmount(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var asset models.Asset
	if err := db.First(&asset, id).Error; err != nil {
		t.Fatalf("failed to load asset %d: %v", id, err)
	}
	return asset.Amount
}

func input(txType models.TransactionType, amount string, assetID *uint) TransactionInput {
	return TransactionInput{
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Date:        testutil.Date(2024, 3, 15),
		Description: "test",
		AssetID:     assetID,
	}
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("income_increases_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, user.ID, "1000")

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "500", &asset.ID))
		testutil.AssertNoError(t, err)

		if tx.ID == 0 {
			t.Fatal("expected non-zero transaction ID")
		}
		if tx.Asset == nil || tx.Asset.ID != asset.ID {
			t.Errorf("expected asset to be preloaded")
		}
		testutil.AssertAmount(t, "1500", assetAmount(t, db, asset.ID))
	})

	t.Run("expense_decreases_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, user.ID, "1000")

		_, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeExpense, "250.75", &asset.ID))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "749.25", assetAmount(t, db, asset.ID))
	})

	t.Run("transfer_leaves_asset_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, user.ID, "1000")

		_, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeTransfer, "300", &asset.ID))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "1000", assetAmount(t, db, asset.ID))
	})

	t.Run("without_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeExpense, "20", nil))
		testutil.AssertNoError(t, err)
		if tx.AssetID != nil {
			t.Errorf("expected no asset, got %v", *tx.AssetID)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "0", nil))
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")

		_, err = svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "-5", nil))
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")

		_, err = svc.CreateTransaction(ctx, user.ID, input("refund", "5", nil))
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("foreign_asset_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, other.ID, "1000")

		_, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "500", &asset.ID))
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")

		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no transaction rows, got %d", count)
		}
		testutil.AssertAmount(t, "1000", assetAmount(t, db, asset.ID))
	})

	t.Run("inactive_asset_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, user.ID, "1000")
		db.Model(asset).Update("is_active", false)

		_, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "500", &asset.ID))
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})

	t.Run("invisible_category_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		private := testutil.CreateTestCategory(t, db, &other.ID, "Secret", models.CategoryTypeExpense, nil)

		in := input(models.TransactionTypeExpense, "10", nil)
		in.CategoryID = &private.ID
		_, err := svc.CreateTransaction(ctx, user.ID, in)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestBalancePropagationScenario(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	checking := testutil.CreateTestAsset(t, db, user.ID, "1000")

	tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "500", &checking.ID))
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "1500", assetAmount(t, db, checking.ID))

	_, err = svc.UpdateTransaction(ctx, user.ID, tx.ID, input(models.TransactionTypeExpense, "200", &checking.ID))
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "800", assetAmount(t, db, checking.ID))

	err = svc.DeleteTransaction(ctx, user.ID, tx.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "1000", assetAmount(t, db, checking.ID))
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("moving_between_assets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAsset(t, db, user.ID, "1000")
		b := testutil.CreateTestAsset(t, db, user.ID, "50")

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeExpense, "100", &a.ID))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "900", assetAmount(t, db, a.ID))

		updated, err := svc.UpdateTransaction(ctx, user.ID, tx.ID, input(models.TransactionTypeIncome, "30", &b.ID))
		testutil.AssertNoError(t, err)
		if updated.AssetID == nil || *updated.AssetID != b.ID {
			t.Fatalf("expected asset %d, got %v", b.ID, updated.AssetID)
		}
		testutil.AssertAmount(t, "1000", assetAmount(t, db, a.ID))
		testutil.AssertAmount(t, "80", assetAmount(t, db, b.ID))

		testutil.AssertNoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))
		testutil.AssertAmount(t, "1000", assetAmount(t, db, a.ID))
		testutil.AssertAmount(t, "50", assetAmount(t, db, b.ID))
	})

	t.Run("unlinking_asset", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAsset(t, db, user.ID, "100")

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "40", &a.ID))
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateTransaction(ctx, user.ID, tx.ID, input(models.TransactionTypeIncome, "40", nil))
		testutil.AssertNoError(t, err)
		if updated.AssetID != nil {
			t.Errorf("expected asset to be cleared")
		}
		testutil.AssertAmount(t, "100", assetAmount(t, db, a.ID))
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAsset(t, db, owner.ID, "100")

		tx, err := svc.CreateTransaction(ctx, owner.ID, input(models.TransactionTypeIncome, "40", &a.ID))
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(ctx, intruder.ID, tx.ID, input(models.TransactionTypeExpense, "1", nil))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
		err = svc.DeleteTransaction(ctx, intruder.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
		testutil.AssertAmount(t, "140", assetAmount(t, db, a.ID))
	})

	t.Run("unscoped_update_keeps_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		owner := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAsset(t, db, owner.ID, "100")

		tx, err := svc.CreateTransaction(ctx, owner.ID, input(models.TransactionTypeIncome, "40", &a.ID))
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateTransaction(ctx, Unscoped, tx.ID, input(models.TransactionTypeIncome, "60", &a.ID))
		testutil.AssertNoError(t, err)
		if updated.UserID != owner.ID {
			t.Errorf("expected owner %d, got %d", owner.ID, updated.UserID)
		}
		testutil.AssertAmount(t, "160", assetAmount(t, db, a.ID))

		testutil.AssertNoError(t, svc.DeleteTransaction(ctx, Unscoped, tx.ID))
		testutil.AssertAmount(t, "100", assetAmount(t, db, a.ID))
	})

	t.Run("failed_update_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		mine := testutil.CreateTestAsset(t, db, user.ID, "100")
		theirs := testutil.CreateTestAsset(t, db, other.ID, "100")

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeIncome, "40", &mine.ID))
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateTransaction(ctx, user.ID, tx.ID, input(models.TransactionTypeIncome, "40", &theirs.ID))
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")

		testutil.AssertAmount(t, "140", assetAmount(t, db, mine.ID))
		testutil.AssertAmount(t, "100", assetAmount(t, db, theirs.ID))
		stored, err := svc.GetTransaction(ctx, user.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if stored.AssetID == nil || *stored.AssetID != mine.ID {
			t.Errorf("transaction should still point at the original asset")
		}
	})

	t.Run("deleted_asset_can_still_be_reversed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAsset(t, db, user.ID, "100")

		tx, err := svc.CreateTransaction(ctx, user.ID, input(models.TransactionTypeExpense, "10", &a.ID))
		testutil.AssertNoError(t, err)
		db.Model(&models.Asset{}).Where("id = ?", a.ID).Update("is_active", false)

		testutil.AssertNoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))
		testutil.AssertAmount(t, "100", assetAmount(t, db, a.ID))
	})
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	food := testutil.CreateTestCategory(t, db, nil, "Food", models.CategoryTypeExpense, nil)
	groceries := testutil.CreateTestCategory(t, db, &user.ID, "Groceries", models.CategoryTypeExpense, &food.ID)

	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "10", testutil.Date(2024, 1, 5), &food.ID)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "20", testutil.Date(2024, 1, 20), &groceries.ID)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, "1000", testutil.Date(2024, 2, 1), nil)
	testutil.CreateTestTransaction(t, db, other.ID, models.TransactionTypeExpense, "99", testutil.Date(2024, 1, 6), &food.ID)

	t.Run("owner_only_newest_first", func(t *testing.T) {
		page, err := svc.ListTransactions(ctx, user.ID, TransactionFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 || len(page.Items) != 3 {
			t.Fatalf("expected 3 transactions, got %d", page.TotalItems)
		}
		if !page.Items[0].Date.After(page.Items[2].Date) {
			t.Errorf("expected newest first")
		}
	})

	t.Run("category_with_children", func(t *testing.T) {
		page, err := svc.ListTransactions(ctx, user.ID, TransactionFilter{CategoryID: &food.ID}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 direct match, got %d", page.TotalItems)
		}

		page, err = svc.ListTransactions(ctx, user.ID, TransactionFilter{CategoryID: &food.ID, IncludeChildren: true}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 matches with children, got %d", page.TotalItems)
		}
	})

	t.Run("date_range_and_type", func(t *testing.T) {
		from := testutil.Date(2024, 1, 10)
		to := testutil.Date(2024, 2, 1)
		income := models.TransactionTypeIncome
		page, err := svc.ListTransactions(ctx, user.ID, TransactionFilter{FromDate: &from, ToDate: &to, Type: &income}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 match, got %d", page.TotalItems)
		}
	})

	t.Run("paged", func(t *testing.T) {
		page, err := svc.ListTransactions(ctx, user.ID, TransactionFilter{}, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)
		if len(page.Items) != 1 || page.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items / %d pages", len(page.Items), page.TotalPages)
		}
	})

	t.Run("monthly", func(t *testing.T) {
		txs, err := svc.ListMonthlyTransactions(ctx, user.ID, 2024, 1)
		testutil.AssertNoError(t, err)
		if len(txs) != 2 {
			t.Errorf("expected 2 January transactions, got %d", len(txs))
		}

		_, err = svc.ListMonthlyTransactions(ctx, user.ID, 2024, 13)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTransactionService(db)
	user := testutil.CreateTestUser(t, db)

	food := testutil.CreateTestCategory(t, db, nil, "Food", models.CategoryTypeExpense, nil)
	rent := testutil.CreateTestCategory(t, db, nil, "Rent", models.CategoryTypeExpense, nil)

	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, "3000", testutil.Date(2024, 5, 1), nil)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "40", testutil.Date(2024, 5, 3), &food.ID)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "60", testutil.Date(2024, 5, 9), &food.ID)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "1200", testutil.Date(2024, 5, 31), &rent.ID)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeTransfer, "500", testutil.Date(2024, 5, 10), nil)
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, "999", testutil.Date(2024, 6, 1), &food.ID)

	stats, err := svc.GetMonthlyStats(ctx, user.ID, 2024, 5)
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "3000", stats.TotalIncome)
	testutil.AssertAmount(t, "1300", stats.TotalExpense)
	testutil.AssertAmount(t, "1700", stats.Net)
	if stats.TransactionCount != 5 {
		t.Errorf("expected 5 transactions, got %d", stats.TransactionCount)
	}

	byCategory, err := svc.GetCategoryStats(ctx, user.ID, 2024, 5)
	testutil.AssertNoError(t, err)
	if len(byCategory) != 3 {
		t.Fatalf("expected 3 category rows, got %d: %+v", len(byCategory), byCategory)
	}
	if byCategory[0].CategoryName != "" || byCategory[0].Type != models.TransactionTypeIncome {
		t.Errorf("expected uncategorized income first, got %+v", byCategory[0])
	}
	if byCategory[1].CategoryName != "Rent" {
		t.Errorf("expected Rent second, got %s", byCategory[1].CategoryName)
	}
	testutil.AssertAmount(t, "100", byCategory[2].Total)
	if byCategory[2].Count != 2 {
		t.Errorf("expected 2 food transactions, got %d", byCategory[2].Count)
	}
}
