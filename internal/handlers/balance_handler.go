package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/services"
)

// BalanceHandler handles initial and total balance requests
type BalanceHandler struct {
	balanceService services.BalanceServicer
	auditService   services.AuditServicer
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService services.BalanceServicer, auditService services.AuditServicer) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService, auditService: auditService}
}

// InitialBalanceRequest is the payload for setting the initial balance
type InitialBalanceRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
}

// GetInitialBalance returns the user's starting capital
// @Summary     Get initial balance
// @Tags        balance
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=models.InitialBalance} "Initial balance, 0 when unset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /balance/initial [get]
func (h *BalanceHandler) GetInitialBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.GetInitialBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, balance)
}

// SetInitialBalance sets the user's starting capital
// @Summary     Set initial balance
// @Tags        balance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body InitialBalanceRequest true "Amount"
// @Success     200 {object} SuccessResponse{data=models.InitialBalance} "Stored initial balance"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /balance/initial [post]
func (h *BalanceHandler) SetInitialBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InitialBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	balance, err := h.balanceService.SetInitialBalance(c.Request.Context(), userID, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditSetInitialBalance, "initial_balance", balance.ID, c.ClientIP(),
		map[string]interface{}{"amount": balance.Amount.String()})

	respondMessage(c, http.StatusOK, "Initial balance saved", balance)
}

// GetTotalBalance returns the user's overall position
// @Summary     Total balance
// @Description current_balance = initial_balance + total_income - total_expense; asset_total sums the active assets
// @Tags        balance
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=services.TotalBalance} "Totals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /balance/total [get]
func (h *BalanceHandler) GetTotalBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.balanceService.GetTotalBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, total)
}
