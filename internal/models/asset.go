package models

import "github.com/shopspring/decimal"

// AssetType classifies assets (cash, bank account, card, ...). Default types
// are global (UserID nil, IsDefault true), seeded once and never mutated.
type AssetType struct {
	Base
	Name        string `gorm:"size:50;not null" json:"name"`
	Icon        string `gorm:"size:50" json:"icon"`
	Color       string `gorm:"size:20" json:"color"`
	Description string `gorm:"size:255" json:"description"`
	UserID      *uint  `gorm:"index" json:"user_id"`
	IsDefault   bool   `gorm:"not null;default:false" json:"is_default"`
}

// OwnerID implements Owned.
func (t *AssetType) OwnerID() *uint { return t.UserID }

// DefaultAssetTypes is the built-in list served when the asset_types table
// has not been created yet. The migrations seed the same rows.
func DefaultAssetTypes() []AssetType {
	return []AssetType{
		{Base: Base{ID: 1}, Name: "Cash", Icon: "wallet", Color: "#10b981", Description: "Physical cash", IsDefault: true},
		{Base: Base{ID: 2}, Name: "Bank Account", Icon: "bank", Color: "#3b82f6", Description: "Checking and savings accounts", IsDefault: true},
		{Base: Base{ID: 3}, Name: "Credit Card", Icon: "credit-card", Color: "#ef4444", Description: "Credit and debit cards", IsDefault: true},
		{Base: Base{ID: 4}, Name: "Investment", Icon: "trending-up", Color: "#a855f7", Description: "Stocks, funds and other investments", IsDefault: true},
		{Base: Base{ID: 5}, Name: "Other", Icon: "box", Color: "#64748b", Description: "Anything else", IsDefault: true},
	}
}

// Asset is a named store of value whose Amount is a running balance: set
// explicitly on creation and adjusted by every linked transaction.
// Deleting an asset only clears IsActive.
type Asset struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	AssetTypeID uint            `gorm:"not null;index" json:"asset_type_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`

	// Relationships
	AssetType *AssetType `gorm:"foreignKey:AssetTypeID" json:"asset_type,omitempty"`
}

// OwnerID implements Owned.
func (a *Asset) OwnerID() *uint { return &a.UserID }
