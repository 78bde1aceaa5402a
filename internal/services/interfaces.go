package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// Unscoped is passed as the user id by internal callers that operate on
// rows without the owner filter.
const Unscoped uint = 0

// UserServicer defines the contract for registration, login and the
// password recovery flows.
type UserServicer interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	FindUsername(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, username string) (string, error)
}

// AssetTypeInput carries the editable fields of an asset type.
type AssetTypeInput struct {
	Name        string
	Icon        string
	Color       string
	Description string
}

// AssetTypeServicer defines the contract for asset type management.
type AssetTypeServicer interface {
	ListAssetTypes(ctx context.Context, userID uint) ([]models.AssetType, error)
	GetAssetType(ctx context.Context, userID, id uint) (*models.AssetType, error)
	CreateAssetType(ctx context.Context, userID uint, input AssetTypeInput) (*models.AssetType, error)
	UpdateAssetType(ctx context.Context, userID, id uint, input AssetTypeInput) (*models.AssetType, error)
	DeleteAssetType(ctx context.Context, userID, id uint) error
}

// AssetInput carries the fields of a new asset.
type AssetInput struct {
	Name        string
	AssetTypeID uint
	Amount      decimal.Decimal
	Description string
}

// AssetUpdate carries the fields to change on an asset. Nil fields are kept.
type AssetUpdate struct {
	Name        *string
	AssetTypeID *uint
	Amount      *decimal.Decimal
	Description *string
}

// AssetTypeTotal is the sum of active asset amounts of one type.
type AssetTypeTotal struct {
	AssetTypeID uint            `json:"asset_type_id"`
	Name        string          `json:"name"`
	Total       decimal.Decimal `json:"total"`
	Count       int64           `json:"count"`
}

// AssetSummary aggregates a user's active assets.
type AssetSummary struct {
	Total  decimal.Decimal  `json:"total"`
	Count  int64            `json:"count"`
	ByType []AssetTypeTotal `json:"by_type"`
}

// AssetServicer defines the contract for asset management.
type AssetServicer interface {
	ListAssets(ctx context.Context, userID uint) ([]models.Asset, error)
	GetAsset(ctx context.Context, userID, id uint) (*models.Asset, error)
	CreateAsset(ctx context.Context, userID uint, input AssetInput) (*models.Asset, error)
	UpdateAsset(ctx context.Context, userID, id uint, update AssetUpdate) (*models.Asset, error)
	DeleteAsset(ctx context.Context, userID, id uint) error
	GetSummary(ctx context.Context, userID uint) (*AssetSummary, error)
}

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name     string
	Type     models.CategoryType
	Color    string
	ParentID *uint
}

// CategoryUpdate carries the fields to change on a category. Nil fields are
// kept; ClearParent moves the category to the top level.
type CategoryUpdate struct {
	Name        *string
	Color       *string
	ParentID    *uint
	ClearParent bool
}

// CategoryUsage summarizes the transactions that reference a category.
type CategoryUsage struct {
	CategoryID  uint            `json:"category_id"`
	TotalCount  int64           `json:"total_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LastUsed    *time.Time      `json:"last_used"`
}

// CategoryServicer defines the contract for the category hierarchy. A zero
// user id stands for an anonymous caller, who only sees global categories.
type CategoryServicer interface {
	ListCategories(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryTree(ctx context.Context, userID uint, categoryType *models.CategoryType) ([]*models.Category, error)
	GetCategory(ctx context.Context, userID, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, userID uint, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, id uint, update CategoryUpdate) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, id uint) error
	GetCategoryUsage(ctx context.Context, userID, id uint) (*CategoryUsage, error)
	DescendantIDs(ctx context.Context, userID, id uint) ([]uint, error)
}

// TransactionInput carries every field of a transaction; updates replace the
// whole row with it.
type TransactionInput struct {
	Amount      decimal.Decimal
	Type        models.TransactionType
	Date        time.Time
	Description string
	CategoryID  *uint
	AssetID     *uint
	Account     string
	Card        string
	Memo        string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate        *time.Time
	ToDate          *time.Time
	Type            *models.TransactionType
	CategoryID      *uint
	IncludeChildren bool
	AssetID         *uint
	Search          string
}

// MonthlyStats aggregates one calendar month of transactions.
type MonthlyStats struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	Net              decimal.Decimal `json:"net"`
	TransactionCount int64           `json:"transaction_count"`
}

// CategoryStat is the total of one category within a month.
type CategoryStat struct {
	CategoryID    *uint                  `json:"category_id"`
	CategoryName  string                 `json:"category_name"`
	CategoryColor string                 `json:"category_color"`
	Type          models.TransactionType `json:"type"`
	Total         decimal.Decimal        `json:"total"`
	Count         int64                  `json:"count"`
}

// TransactionServicer defines the contract for transactions and the balance
// propagation to their linked assets.
type TransactionServicer interface {
	ListTransactions(ctx context.Context, userID uint, filter TransactionFilter, page pagination.PageRequest) (*pagination.Page[models.Transaction], error)
	ListMonthlyTransactions(ctx context.Context, userID uint, year, month int) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id uint) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, userID uint, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id uint, input TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id uint) error
	GetMonthlyStats(ctx context.Context, userID uint, year, month int) (*MonthlyStats, error)
	GetCategoryStats(ctx context.Context, userID uint, year, month int) ([]CategoryStat, error)
}

// TotalBalance is the user's overall position.
type TotalBalance struct {
	InitialBalance decimal.Decimal `json:"initial_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	AssetTotal     decimal.Decimal `json:"asset_total"`
}

// BalanceServicer defines the contract for initial and total balances.
type BalanceServicer interface {
	GetInitialBalance(ctx context.Context, userID uint) (*models.InitialBalance, error)
	SetInitialBalance(ctx context.Context, userID uint, amount decimal.Decimal) (*models.InitialBalance, error)
	GetTotalBalance(ctx context.Context, userID uint) (*TotalBalance, error)
}

// MemoInput carries the fields of a new memo.
type MemoInput struct {
	Title      string
	Content    string
	Date       time.Time
	Priority   models.MemoPriority
	Visibility models.MemoVisibility
}

// MemoUpdate carries the fields to change on a memo. Nil fields are kept.
type MemoUpdate struct {
	Title       *string
	Content     *string
	Date        *time.Time
	Priority    *models.MemoPriority
	Visibility  *models.MemoVisibility
	IsCompleted *bool
}

// MemoFilter selects memos by a single date or by a calendar month.
type MemoFilter struct {
	Date  *time.Time
	Year  int
	Month int
}

// MemoServicer defines the contract for memos.
type MemoServicer interface {
	ListMemos(ctx context.Context, userID uint, filter MemoFilter) ([]models.Memo, error)
	ListPublicMemos(ctx context.Context, filter MemoFilter) ([]models.Memo, error)
	GetMemo(ctx context.Context, userID, id uint) (*models.Memo, error)
	CreateMemo(ctx context.Context, userID uint, input MemoInput) (*models.Memo, error)
	UpdateMemo(ctx context.Context, userID, id uint, update MemoUpdate) (*models.Memo, error)
	DeleteMemo(ctx context.Context, userID, id uint) error
	ToggleMemo(ctx context.Context, userID, id uint) (*models.Memo, error)
}

// ExportServicer renders a month of transactions as a spreadsheet.
type ExportServicer interface {
	ExportTransactions(ctx context.Context, userID uint, year, month int) ([]byte, string, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
	Recent(ctx context.Context, userID uint, limit int) ([]models.AuditLog, error)
}
