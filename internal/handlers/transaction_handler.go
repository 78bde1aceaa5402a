package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransactionHandler handles transaction, stats and export requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	exportService      services.ExportServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer, exportService services.ExportServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		exportService:      exportService,
		auditService:       auditService,
	}
}

// TransactionRequest is the payload for creating or replacing a transaction
type TransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
	Type        string           `json:"type" binding:"required,transaction_type"`
	Date        string           `json:"date" binding:"omitempty,ymd" example:"2024-03-15"`
	Description string           `json:"description" binding:"max=255"`
	CategoryID  *uint            `json:"category_id"`
	AssetID     *uint            `json:"asset_id"`
	Account     string           `json:"account" binding:"max=100"`
	Card        string           `json:"card" binding:"max=100"`
	Memo        string           `json:"memo" binding:"max=255"`
}

func (r TransactionRequest) toInput() (services.TransactionInput, error) {
	date, err := parseDate(r.Date, "date")
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Amount:      *r.Amount,
		Type:        models.TransactionType(r.Type),
		Date:        date,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		AssetID:     r.AssetID,
		Account:     r.Account,
		Card:        r.Card,
		Memo:        r.Memo,
	}, nil
}

func (h *TransactionHandler) bindTransaction(c *gin.Context) (services.TransactionInput, error) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.TransactionInput{}, bindError(err)
	}
	return req.toInput()
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a transaction; a linked asset is credited for income and debited for expense
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} SuccessResponse{data=models.Transaction} "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category or asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindTransaction(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Transaction created", transaction)
}

// ListTransactions returns the user's transactions
// @Summary     List transactions
// @Description List the authenticated user's transactions, newest first. Without page every match is returned.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page             query int    false "Page number"
// @Param       page_size        query int    false "Items per page (default 50, max 500)"
// @Param       from_date        query string false "Start date (YYYY-MM-DD)"
// @Param       to_date          query string false "End date, inclusive (YYYY-MM-DD)"
// @Param       type             query string false "income, expense or transfer"
// @Param       category_id      query int    false "Category ID"
// @Param       include_children query bool   false "Also match subcategories of category_id"
// @Param       asset_id         query int    false "Asset ID"
// @Param       search           query string false "Text in description or memo"
// @Success     200 {object} SuccessResponse{data=pagination.Page[models.Transaction]} "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

func parseUintQuery(c *gin.Context, name string) (*uint, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+name)
	}
	out := uint(id)
	return &out, nil
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseDate(v, "from_date")
		if err != nil {
			return filter, err
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseDate(v, "to_date")
		if err != nil {
			return filter, err
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.IsValid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income, expense or transfer")
		}
		filter.Type = &txType
	}

	var err error
	if filter.CategoryID, err = parseUintQuery(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.AssetID, err = parseUintQuery(c, "asset_id"); err != nil {
		return filter, err
	}

	if v := c.Query("include_children"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid include_children")
		}
		filter.IncludeChildren = include
	}

	filter.Search = c.Query("search")
	return filter, nil
}

// ListMonthlyTransactions returns the user's transactions of one month
// @Summary     List a month of transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} SuccessResponse{data=[]models.Transaction} "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid year or month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions/{year}/{month} [get]
func (h *TransactionHandler) ListMonthlyTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListMonthlyTransactions(c.Request.Context(), userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, transactions)
}

// UpdateTransaction replaces a transaction
// @Summary     Update transaction
// @Description Replace a transaction; its previous effect on the old asset is reversed before the new effect is applied
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} SuccessResponse{data=models.Transaction} "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction, category or asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindTransaction(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Transaction updated", transaction)
}

// DeleteTransaction deletes a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and reverse its effect on the linked asset
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} SuccessResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteTransaction, "transaction", id, c.ClientIP(), nil)

	respondMessage(c, http.StatusOK, "Transaction deleted", nil)
}

// GetMonthlyStats totals income and expense of a month
// @Summary     Monthly stats
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} SuccessResponse{data=services.MonthlyStats} "Totals"
// @Failure     400 {object} ErrorResponse "Invalid year or month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stats/{year}/{month} [get]
func (h *TransactionHandler) GetMonthlyStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.transactionService.GetMonthlyStats(c.Request.Context(), userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats)
}

// GetCategoryStats totals a month per category
// @Summary     Monthly stats per category
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Param       year  path int true "Year"
// @Param       month path int true "Month (1-12)"
// @Success     200 {object} SuccessResponse{data=[]services.CategoryStat} "Totals per category"
// @Failure     400 {object} ErrorResponse "Invalid year or month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /stats/{year}/{month}/categories [get]
func (h *TransactionHandler) GetCategoryStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year, month, err := parseYearMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.transactionService.GetCategoryStats(c.Request.Context(), userID, year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, stats)
}

// ExportTransactions downloads a month of transactions as xlsx
// @Summary     Export transactions
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       year  query int true "Year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {file} binary "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid year or month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /export/transactions [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q struct {
		Year  int `form:"year" binding:"required,min=1900,max=9999"`
		Month int `form:"month" binding:"required,min=1,max=12"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	data, filename, err := h.exportService.ExportTransactions(c.Request.Context(), userID, q.Year, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
