package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialBalance is a user's starting capital. There is at most one row per
// user; writes are upserts.
type InitialBalance struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}
