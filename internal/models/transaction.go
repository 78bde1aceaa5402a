package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is a single income, expense or transfer entry. When AssetID is
// set, the transaction's signed delta is reflected in the asset's amount.
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Type        TransactionType `gorm:"size:10;not null;index" json:"type"`
	Date        time.Time       `gorm:"type:date;not null;index" json:"date"`
	Account     string          `gorm:"size:100" json:"account"`
	Card        string          `gorm:"size:100" json:"card"`
	Memo        string          `gorm:"size:255" json:"memo"`
	AssetID     *uint           `gorm:"index" json:"asset_id"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Asset    *Asset    `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

// OwnerID implements Owned.
func (t *Transaction) OwnerID() *uint { return &t.UserID }

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// BalanceDelta returns the signed amount a transaction of type t and the
// given amount applies to its linked asset. Transfers have no effect.
func (t TransactionType) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TransactionTypeIncome:
		return amount
	case TransactionTypeExpense:
		return amount.Neg()
	}
	return decimal.Zero
}
