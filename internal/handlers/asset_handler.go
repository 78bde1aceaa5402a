package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/services"
)

// AssetHandler handles asset and asset type requests.
type AssetHandler struct {
	assetService     services.AssetServicer
	assetTypeService services.AssetTypeServicer
	auditService     services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, assetTypeService services.AssetTypeServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{
		assetService:     assetService,
		assetTypeService: assetTypeService,
		auditService:     auditService,
	}
}

// CreateAssetRequest represents the request payload for creating an asset.
type CreateAssetRequest struct {
	Name        string           `json:"name" binding:"required,max=100"`
	AssetTypeID uint             `json:"asset_type_id" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number"`
	Description string           `json:"description" binding:"max=255"`
}

// UpdateAssetRequest represents the request payload for updating an asset.
// Setting amount is a manual balance correction.
type UpdateAssetRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=100"`
	AssetTypeID *uint            `json:"asset_type_id"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

// AssetTypeRequest represents the request payload for creating or updating
// an asset type.
type AssetTypeRequest struct {
	Name        string `json:"name" binding:"max=50"`
	Icon        string `json:"icon" binding:"max=50"`
	Color       string `json:"color" binding:"omitempty,hex_color"`
	Description string `json:"description" binding:"max=255"`
}

func (r AssetTypeRequest) toInput() services.AssetTypeInput {
	return services.AssetTypeInput{Name: r.Name, Icon: r.Icon, Color: r.Color, Description: r.Description}
}

// ListAssets returns the user's active assets
// @Summary     List assets
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=[]models.Asset} "Active assets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /assets [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assets, err := h.assetService.ListAssets(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, assets)
}

// GetAssetSummary totals the user's active assets
// @Summary     Asset summary
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=services.AssetSummary} "Totals"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /assets/summary [get]
func (h *AssetHandler) GetAssetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.assetService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// GetAsset returns one active asset
// @Summary     Get asset by ID
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} SuccessResponse{data=models.Asset} "Asset"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
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

	asset, err := h.assetService.GetAsset(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, asset)
}

// CreateAsset creates an asset with a starting amount
// @Summary     Create asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} SuccessResponse{data=models.Asset} "Asset created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset type not found"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), userID, services.AssetInput{
		Name:        req.Name,
		AssetTypeID: req.AssetTypeID,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Asset created", asset)
}

// UpdateAsset changes an asset
// @Summary     Update asset
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                true "Asset ID"
// @Param       request body UpdateAssetRequest true "Fields to change"
// @Success     200 {object} SuccessResponse{data=models.Asset} "Updated asset"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
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

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	asset, err := h.assetService.UpdateAsset(c.Request.Context(), userID, id, services.AssetUpdate{
		Name:        req.Name,
		AssetTypeID: req.AssetTypeID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Asset updated", asset)
}

// DeleteAsset soft-deletes an asset
// @Summary     Delete asset
// @Description Deactivate an asset; transactions keep referencing it
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} SuccessResponse "Asset deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
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

	if err := h.assetService.DeleteAsset(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteAsset, "asset", id, c.ClientIP(), nil)

	respondMessage(c, http.StatusOK, "Asset deleted", nil)
}

// ListAssetTypes returns the default and the user's own asset types
// @Summary     List asset types
// @Tags        asset-types
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=[]models.AssetType} "Asset types"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /asset-types [get]
func (h *AssetHandler) ListAssetTypes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	types, err := h.assetTypeService.ListAssetTypes(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, types)
}

// GetAssetType returns a default type or one owned by the user
// @Summary     Get asset type by ID
// @Tags        asset-types
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset type ID"
// @Success     200 {object} SuccessResponse{data=models.AssetType} "Asset type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset type not found"
// @Router      /asset-types/{id} [get]
func (h *AssetHandler) GetAssetType(c *gin.Context) {
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

	assetType, err := h.assetTypeService.GetAssetType(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, assetType)
}

// CreateAssetType creates a user-owned asset type
// @Summary     Create asset type
// @Tags        asset-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AssetTypeRequest true "Asset type details"
// @Success     201 {object} SuccessResponse{data=models.AssetType} "Asset type created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /asset-types [post]
func (h *AssetHandler) CreateAssetType(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AssetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	assetType, err := h.assetTypeService.CreateAssetType(c.Request.Context(), userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Asset type created", assetType)
}

// UpdateAssetType changes a user-owned asset type
// @Summary     Update asset type
// @Tags        asset-types
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Asset type ID"
// @Param       request body AssetTypeRequest true "Fields to change"
// @Success     200 {object} SuccessResponse{data=models.AssetType} "Updated asset type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Default types are immutable"
// @Failure     404 {object} ErrorResponse "Asset type not found"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /asset-types/{id} [put]
func (h *AssetHandler) UpdateAssetType(c *gin.Context) {
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

	var req AssetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	assetType, err := h.assetTypeService.UpdateAssetType(c.Request.Context(), userID, id, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Asset type updated", assetType)
}

// DeleteAssetType removes a user-owned asset type
// @Summary     Delete asset type
// @Tags        asset-types
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset type ID"
// @Success     200 {object} SuccessResponse "Asset type deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Default types are immutable"
// @Failure     404 {object} ErrorResponse "Asset type not found"
// @Failure     409 {object} ErrorResponse "Asset type in use"
// @Router      /asset-types/{id} [delete]
func (h *AssetHandler) DeleteAssetType(c *gin.Context) {
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

	if err := h.assetTypeService.DeleteAssetType(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteAssetType, "asset_type", id, c.ClientIP(), nil)

	respondMessage(c, http.StatusOK, "Asset type deleted", nil)
}
