package handler

import (
	"context"
	"log/slog"
	"net/http"

	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/response"
	"propledger/internal/domain/entity"
	"propledger/internal/domain/repository"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// AssetHandlerParams holds dependencies for AssetHandler, injected by Fx.
type AssetHandlerParams struct {
	fx.In

	AssetUC usecase.AssetUsecase
	Logger  *slog.Logger
}

// AssetHandler serves asset listing and lifecycle endpoints.
type AssetHandler struct {
	assetUC usecase.AssetUsecase
	logger  *slog.Logger
}

// NewAssetHandler is the constructor for AssetHandler
func NewAssetHandler(params AssetHandlerParams) *AssetHandler {
	return &AssetHandler{
		assetUC: params.AssetUC,
		logger:  params.Logger,
	}
}

// CreateAssetRequest represents a builder's listing
type CreateAssetRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Location    string `json:"location" validate:"max=500"`
	Description string `json:"description" validate:"max=5000"`
	RiskTier    string `json:"risk_tier" validate:"max=32"`
	Valuation   string `json:"valuation" validate:"required,money"`
}

// VerifyAssetRequest optionally carries an externally computed verification hash
type VerifyAssetRequest struct {
	VerificationHash string `json:"verification_hash" validate:"max=256"`
}

// TokenizeAssetRequest fixes the unit supply and price
type TokenizeAssetRequest struct {
	TotalUnits int64  `json:"total_units" validate:"required,gt=0"`
	UnitPrice  string `json:"unit_price" validate:"required,money"`
}

// StatusReasonRequest carries the reason for a pause, reject or dispute
type StatusReasonRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type assetTransition func(c echo.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error)

// CreateAsset lists a new DRAFT asset for the calling builder
func (h *AssetHandler) CreateAsset(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	var req CreateAssetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid asset input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	asset, err := h.assetUC.CreateAsset(c.Request().Context(), actor, &usecase.CreateAssetInput{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		RiskTier:    req.RiskTier,
		Valuation:   decimal.RequireFromString(req.Valuation),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newAssetView(asset))
}

// ListAssets lists assets, optionally filtered by status and owner
func (h *AssetHandler) ListAssets(c echo.Context) error {
	filter := repository.AssetFilter{
		Status: entity.AssetStatus(c.QueryParam("status")),
		Page:   pagination(c),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return response.BadRequest(c, "VALIDATION_FAILED", "Unknown asset status")
	}
	if owner := c.QueryParam("owner"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return response.BadRequest(c, "INVALID_ID", "Invalid owner ID")
		}
		filter.OwnerID = ownerID
	}

	assets, err := h.assetUC.ListAssets(c.Request().Context(), filter)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Page(c, mapSlice(assets, newAssetView), len(assets), filter.Page)
}

// GetAsset returns one asset
func (h *AssetHandler) GetAsset(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	asset, err := h.assetUC.GetAsset(c.Request().Context(), assetID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newAssetView(asset))
}

// SubmitForAudit moves a DRAFT asset to SUBMITTED
func (h *AssetHandler) SubmitForAudit(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
		return h.assetUC.SubmitForAudit(c.Request().Context(), actor, assetID)
	})
}

// Verify moves a SUBMITTED asset to VERIFIED
func (h *AssetHandler) Verify(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
		var req VerifyAssetRequest
		if err := bindOptional(c, &req); err != nil {
			return nil, err
		}

		return h.assetUC.Verify(c.Request().Context(), actor, assetID, req.VerificationHash)
	})
}

// Tokenize moves a VERIFIED asset to ACTIVE with a fixed unit supply
func (h *AssetHandler) Tokenize(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	var req TokenizeAssetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid tokenization input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	asset, err := h.assetUC.Tokenize(c.Request().Context(), actor, assetID, &usecase.TokenizeInput{
		TotalUnits: req.TotalUnits,
		UnitPrice:  decimal.RequireFromString(req.UnitPrice),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newAssetView(asset))
}

// Pause freezes an ACTIVE asset
func (h *AssetHandler) Pause(c echo.Context) error {
	return h.transitionWithReason(c, h.assetUC.Pause)
}

// Resume reopens a PAUSED asset
func (h *AssetHandler) Resume(c echo.Context) error {
	return h.transition(c, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
		return h.assetUC.Resume(c.Request().Context(), actor, assetID)
	})
}

// Reject closes an asset as REJECTED
func (h *AssetHandler) Reject(c echo.Context) error {
	return h.transitionWithReason(c, h.assetUC.Reject)
}

// Dispute closes an asset as DISPUTED
func (h *AssetHandler) Dispute(c echo.Context) error {
	return h.transitionWithReason(c, h.assetUC.Dispute)
}

// Reconcile reports the unit conservation breakdown of an asset
func (h *AssetHandler) Reconcile(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	rec, err := h.assetUC.Reconcile(c.Request().Context(), actor, assetID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"asset_id":          rec.AssetID,
		"total_units":       rec.TotalUnits,
		"unallocated_units": rec.UnallocatedUnits,
		"owned_units":       rec.OwnedUnits,
		"locked_units":      rec.LockedUnits,
		"holders":           rec.Holders,
		"balanced":          rec.Balanced,
	})
}

func (h *AssetHandler) transitionWithReason(
	c echo.Context,
	fn func(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, reason string) (*entity.Asset, error),
) error {
	return h.transition(c, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID) (*entity.Asset, error) {
		var req StatusReasonRequest
		if err := bindOptional(c, &req); err != nil {
			return nil, err
		}

		return fn(c.Request().Context(), actor, assetID, req.Reason)
	})
}

func (h *AssetHandler) transition(c echo.Context, fn assetTransition) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	asset, err := fn(c, actor, assetID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newAssetView(asset))
}
