package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/password"
)

// TestPassword is the plain password of every fixture user.
const TestPassword = "secret123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username
// and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWith(t, db, fmt.Sprintf("user%d", n), fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWith creates a user with the given username and email.
func CreateTestUserWith(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()

	hash, salt, err := password.HashWithNewSalt(TestPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAsset creates an active asset of the default "Cash" type.
func CreateTestAsset(t *testing.T, db *gorm.DB, userID uint, amount string) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Asset %d", nextID()),
		AssetTypeID: 1,
		Amount:      decimal.RequireFromString(amount),
		IsActive:    true,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestCategory creates a category. A nil userID makes it global.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID *uint, name string, categoryType models.CategoryType, parentID *uint) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     name,
		Type:     categoryType,
		Color:    "#808080",
		ParentID: parentID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction inserts a transaction row directly, without touching
// any asset balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID uint, txType models.TransactionType, amount string, date time.Time, categoryID *uint) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Date:        date,
		CategoryID:  categoryID,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestMemo creates a memo dated on date.
func CreateTestMemo(t *testing.T, db *gorm.DB, userID uint, visibility models.MemoVisibility, date time.Time) *models.Memo {
	t.Helper()

	memo := &models.Memo{
		UserID:     userID,
		Title:      fmt.Sprintf("Memo %d", nextID()),
		Date:       date,
		Priority:   models.MemoPriorityMedium,
		Visibility: visibility,
	}
	if err := db.Create(memo).Error; err != nil {
		t.Fatalf("failed to create test memo: %v", err)
	}
	return memo
}

// Date returns midnight UTC of the given day.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint {
	return &v
}
