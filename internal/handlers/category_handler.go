package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Type     string `json:"type" binding:"required,category_type"`
	Color    string `json:"color" binding:"omitempty,hex_color"`
	ParentID *uint  `json:"parent_id"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
// A parent_id of 0 moves the category to the top level.
type UpdateCategoryRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Color    *string `json:"color" binding:"omitempty,hex_color"`
	ParentID *uint   `json:"parent_id"`
}

func parseCategoryType(value string) (*models.CategoryType, error) {
	if value == "" {
		return nil, nil
	}
	t := models.CategoryType(value)
	if !t.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
	return &t, nil
}

// ListCategories handles the retrieval of the visible categories
// @Summary     List categories
// @Description Global categories plus the caller's own, ordered by type then name. Anonymous callers get global categories only.
// @Tags        categories
// @Produce     json
// @Param       type query string false "income or expense"
// @Param       tree query bool   false "Return the categories nested under their parents"
// @Success     200 {object} SuccessResponse{data=[]models.Category} "Categories"
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categoryType, err := parseCategoryType(c.Query("type"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.list(c, categoryType)
}

func (h *CategoryHandler) list(c *gin.Context, categoryType *models.CategoryType) {
	userID := optionalUserID(c)

	if tree, _ := strconv.ParseBool(c.Query("tree")); tree {
		roots, err := h.categoryService.GetCategoryTree(c.Request.Context(), userID, categoryType)
		if err != nil {
			respondWithError(c, err)
			return
		}
		respondOK(c, http.StatusOK, roots)
		return
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), userID, categoryType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondOK(c, http.StatusOK, categories)
}

// GetCategory returns one category, or the categories of a type when the
// path segment is "income" or "expense"
// @Summary     Get category by ID or list by type
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID, or income/expense"
// @Success     200 {object} SuccessResponse{data=models.Category} "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	if t := models.CategoryType(c.Param("id")); t.IsValid() {
		h.list(c, &t)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategory(c.Request.Context(), optionalUserID(c), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, category)
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a category owned by the caller. A child must have its parent's type; trees are at most three levels deep.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} SuccessResponse{data=models.Category} "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input, type mismatch or too deep"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent not found"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, services.CategoryInput{
		Name:     req.Name,
		Type:     models.CategoryType(req.Type),
		Color:    req.Color,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Category created", category)
}

// UpdateCategory handles updating a category
// @Summary     Update category
// @Description Update name, color or parent of a global or owned category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                   true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} SuccessResponse{data=models.Category} "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
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

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.CategoryUpdate{Name: req.Name, Color: req.Color}
	if req.ParentID != nil {
		if *req.ParentID == 0 {
			update.ClearParent = true
		} else {
			update.ParentID = req.ParentID
		}
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory handles deleting a category
// @Summary     Delete category
// @Description Delete a global or owned category. Subcategories move to the top level and transactions lose the reference.
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} SuccessResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
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

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteCategory, "category", id, c.ClientIP(), nil)

	respondMessage(c, http.StatusOK, "Category deleted", nil)
}

// GetCategoryUsage reports how often a category is used
// @Summary     Category usage
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Category ID"
// @Success     200 {object} SuccessResponse{data=services.CategoryUsage} "Usage totals"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/usage [get]
func (h *CategoryHandler) GetCategoryUsage(c *gin.Context) {
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

	usage, err := h.categoryService.GetCategoryUsage(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, usage)
}
