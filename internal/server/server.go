// Package server assembles the services, handlers and middleware into the
// HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "fintrack/internal/docs" // swagger spec
	"fintrack/internal/handlers"
	"fintrack/internal/middleware"
	"fintrack/internal/services"
)

// Options tunes the router.
type Options struct {
	// RequestTimeout bounds the database work of one request, including the
	// wait for a pooled connection. Zero disables it.
	RequestTimeout time.Duration
	// LoginRateLimit is the number of login attempts allowed per client IP
	// per minute. Zero disables the limit.
	LoginRateLimit int
	CORSOrigin     string
	Swagger        bool
}

// Services bundles every service the handlers depend on.
type Services struct {
	Users        services.UserServicer
	AssetTypes   services.AssetTypeServicer
	Assets       services.AssetServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Balance      services.BalanceServicer
	Memos        services.MemoServicer
	Export       services.ExportServicer
	Audit        services.AuditServicer
}

// NewServices wires the gorm-backed services over db.
func NewServices(db *gorm.DB) *Services {
	assetTypes := services.NewAssetTypeService(db)
	categories := services.NewCategoryService(db)
	transactions := services.NewTransactionService(db, categories)

	return &Services{
		Users:        services.NewUserService(db),
		AssetTypes:   assetTypes,
		Assets:       services.NewAssetService(db, assetTypes),
		Categories:   categories,
		Transactions: transactions,
		Balance:      services.NewBalanceService(db),
		Memos:        services.NewMemoService(db),
		Export:       services.NewExportService(transactions),
		Audit:        services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine serving the API under /api.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Export, svc.Audit)
	assetHandler := handlers.NewAssetHandler(svc.Assets, svc.AssetTypes, svc.Audit)
	balanceHandler := handlers.NewBalanceHandler(svc.Balance, svc.Audit)
	memoHandler := handlers.NewMemoHandler(svc.Memos)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.RequestTimeout(opts.RequestTimeout))
	router.Use(middleware.CORS(opts.CORSOrigin))
	router.Use(middleware.ErrorHandler())

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group("/api")
	api.GET("/health", health)

	requireAuth := middleware.AuthRequired()
	optionalAuth := middleware.AuthOptional()

	// Auth routes
	auth := api.Group("/auth")
	loginHandlers := []gin.HandlerFunc{authHandler.Login}
	if opts.LoginRateLimit > 0 {
		loginHandlers = append([]gin.HandlerFunc{middleware.LoginRateLimit(opts.LoginRateLimit, time.Minute)}, loginHandlers...)
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", loginHandlers...)
	auth.POST("/find-username", authHandler.FindUsername)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/profile", requireAuth, authHandler.GetProfile)
	auth.PUT("/change-password", requireAuth, authHandler.ChangePassword)
	auth.GET("/activity", requireAuth, authHandler.GetActivity)

	// Category routes; reads are open to anonymous callers
	categories := api.Group("/categories")
	categories.GET("", optionalAuth, categoryHandler.ListCategories)
	categories.GET("/:id", optionalAuth, categoryHandler.GetCategory)
	categories.GET("/:id/usage", requireAuth, categoryHandler.GetCategoryUsage)
	categories.POST("", requireAuth, categoryHandler.CreateCategory)
	categories.PUT("/:id", requireAuth, categoryHandler.UpdateCategory)
	categories.DELETE("/:id", requireAuth, categoryHandler.DeleteCategory)

	// Memo routes; public memos are readable without a token
	memos := api.Group("/memos")
	memos.GET("", optionalAuth, memoHandler.ListMemos)
	memos.GET("/:id", optionalAuth, memoHandler.GetMemo)
	memos.POST("", requireAuth, memoHandler.CreateMemo)
	memos.PUT("/:id", requireAuth, memoHandler.UpdateMemo)
	memos.PATCH("/:id/toggle", requireAuth, memoHandler.ToggleMemo)
	memos.DELETE("/:id", requireAuth, memoHandler.DeleteMemo)

	// Protected routes
	protected := api.Group("")
	protected.Use(requireAuth)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:year/:month", transactionHandler.ListMonthlyTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	stats := protected.Group("/stats")
	stats.GET("/:year/:month", transactionHandler.GetMonthlyStats)
	stats.GET("/:year/:month/categories", transactionHandler.GetCategoryStats)

	protected.GET("/export/transactions", transactionHandler.ExportTransactions)

	balance := protected.Group("/balance")
	balance.GET("/initial", balanceHandler.GetInitialBalance)
	balance.POST("/initial", balanceHandler.SetInitialBalance)
	balance.GET("/total", balanceHandler.GetTotalBalance)

	assets := protected.Group("/assets")
	assets.GET("", assetHandler.ListAssets)
	assets.GET("/summary", assetHandler.GetAssetSummary)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.POST("", assetHandler.CreateAsset)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)

	assetTypes := protected.Group("/asset-types")
	assetTypes.GET("", assetHandler.ListAssetTypes)
	assetTypes.GET("/:id", assetHandler.GetAssetType)
	assetTypes.POST("", assetHandler.CreateAssetType)
	assetTypes.PUT("/:id", assetHandler.UpdateAssetType)
	assetTypes.DELETE("/:id", assetHandler.DeleteAssetType)

	return router
}

// health reports that the process is serving requests
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} handlers.SuccessResponse "Service is up"
// @Router      /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "fintrack API is running"})
}
