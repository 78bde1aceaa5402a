package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// MaxCategoryDepth is the number of levels in the category tree
// (top-level, mid, leaf).
const MaxCategoryDepth = 3

// Category is a node of the per-type classification tree. A nil UserID marks
// a global category shared by every user.
type Category struct {
	Base
	UserID   *uint        `gorm:"index" json:"user_id"`
	Name     string       `gorm:"size:100;not null" json:"name"`
	Type     CategoryType `gorm:"size:10;not null;index" json:"type"`
	Color    string       `gorm:"size:20" json:"color"`
	ParentID *uint        `gorm:"index" json:"parent_id"`

	// Relationships
	Parent   *Category   `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
	Children []*Category `gorm:"-" json:"children,omitempty"`
}

// OwnerID implements Owned.
func (c *Category) OwnerID() *uint { return c.UserID }

// IsValid reports whether t is a known category type.
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}
