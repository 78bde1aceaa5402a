package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// MemoHandler handles memo requests.
type MemoHandler struct {
	memoService services.MemoServicer
}

// NewMemoHandler creates a new MemoHandler.
func NewMemoHandler(memoService services.MemoServicer) *MemoHandler {
	return &MemoHandler{memoService: memoService}
}

// CreateMemoRequest represents the request payload for creating a memo.
type CreateMemoRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Content    string `json:"content"`
	Date       string `json:"date" binding:"omitempty,ymd" example:"2024-03-15"`
	Priority   string `json:"priority" binding:"omitempty,memo_priority" example:"medium"`
	Visibility string `json:"visibility" binding:"omitempty,memo_visibility" example:"private"`
}

// UpdateMemoRequest represents the request payload for updating a memo.
type UpdateMemoRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Content     *string `json:"content"`
	Date        *string `json:"date" binding:"omitempty,ymd"`
	Priority    *string `json:"priority" binding:"omitempty,memo_priority"`
	Visibility  *string `json:"visibility" binding:"omitempty,memo_visibility"`
	IsCompleted *bool   `json:"is_completed"`
}

// parseMemoFilter reads ?date= or ?year=&month=.
func parseMemoFilter(c *gin.Context) (services.MemoFilter, error) {
	var filter services.MemoFilter

	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw, "date")
		if err != nil {
			return filter, err
		}
		filter.Date = &date
		return filter, nil
	}

	year, month := c.Query("year"), c.Query("month")
	if year == "" && month == "" {
		return filter, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year")
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid month")
	}
	filter.Year, filter.Month = y, m
	return filter, nil
}

// ListMemos returns memos by date or month
// @Summary     List memos
// @Description Authenticated callers get their own memos; ?visibility=public or an anonymous caller gets every public memo
// @Tags        memos
// @Produce     json
// @Param       visibility query string false "public to list public memos"
// @Param       date       query string false "Single date (YYYY-MM-DD)"
// @Param       year       query int    false "Year"
// @Param       month      query int    false "Month (1-12)"
// @Success     200 {object} SuccessResponse{data=[]models.Memo} "Memos"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /memos [get]
func (h *MemoHandler) ListMemos(c *gin.Context) {
	filter, err := parseMemoFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	userID := optionalUserID(c)

	var memos []models.Memo
	if userID == 0 || c.Query("visibility") == string(models.MemoVisibilityPublic) {
		memos, err = h.memoService.ListPublicMemos(c.Request.Context(), filter)
	} else {
		memos, err = h.memoService.ListMemos(c.Request.Context(), userID, filter)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, memos)
}

// GetMemo returns one memo
// @Summary     Get memo by ID
// @Tags        memos
// @Produce     json
// @Param       id path int true "Memo ID"
// @Success     200 {object} SuccessResponse{data=models.Memo} "Memo"
// @Failure     404 {object} ErrorResponse "Memo not found"
// @Router      /memos/{id} [get]
func (h *MemoHandler) GetMemo(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	memo, err := h.memoService.GetMemo(c.Request.Context(), optionalUserID(c), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, memo)
}

// CreateMemo creates a memo
// @Summary     Create memo
// @Description Date defaults to today, priority to medium and visibility to private
// @Tags        memos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateMemoRequest true "Memo details"
// @Success     201 {object} SuccessResponse{data=models.Memo} "Memo created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /memos [post]
func (h *MemoHandler) CreateMemo(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseDate(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	memo, err := h.memoService.CreateMemo(c.Request.Context(), userID, services.MemoInput{
		Title:      req.Title,
		Content:    req.Content,
		Date:       date,
		Priority:   models.MemoPriority(req.Priority),
		Visibility: models.MemoVisibility(req.Visibility),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Memo created", memo)
}

// UpdateMemo changes a memo
// @Summary     Update memo
// @Tags        memos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "Memo ID"
// @Param       request body UpdateMemoRequest true "Fields to change"
// @Success     200 {object} SuccessResponse{data=models.Memo} "Updated memo"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Public memo of another user"
// @Failure     404 {object} ErrorResponse "Memo not found"
// @Router      /memos/{id} [put]
func (h *MemoHandler) UpdateMemo(c *gin.Context) {
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

	var req UpdateMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.MemoUpdate{
		Title:       req.Title,
		Content:     req.Content,
		IsCompleted: req.IsCompleted,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date, "date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.Date = &date
	}
	if req.Priority != nil {
		p := models.MemoPriority(*req.Priority)
		update.Priority = &p
	}
	if req.Visibility != nil {
		v := models.MemoVisibility(*req.Visibility)
		update.Visibility = &v
	}

	memo, err := h.memoService.UpdateMemo(c.Request.Context(), userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Memo updated", memo)
}

// ToggleMemo flips a memo's completion flag
// @Summary     Toggle memo completion
// @Tags        memos
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Memo ID"
// @Success     200 {object} SuccessResponse{data=models.Memo} "Toggled memo"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Public memo of another user"
// @Failure     404 {object} ErrorResponse "Memo not found"
// @Router      /memos/{id}/toggle [patch]
func (h *MemoHandler) ToggleMemo(c *gin.Context) {
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

	memo, err := h.memoService.ToggleMemo(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, memo)
}

// DeleteMemo removes a memo
// @Summary     Delete memo
// @Tags        memos
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Memo ID"
// @Success     200 {object} SuccessResponse "Memo deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Public memo of another user"
// @Failure     404 {object} ErrorResponse "Memo not found"
// @Router      /memos/{id} [delete]
func (h *MemoHandler) DeleteMemo(c *gin.Context) {
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

	if err := h.memoService.DeleteMemo(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Memo deleted", nil)
}
