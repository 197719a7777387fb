package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/response"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// TradeHandlerParams holds dependencies for TradeHandler, injected by Fx.
type TradeHandlerParams struct {
	fx.In

	OwnershipUC usecase.OwnershipUsecase
	Logger      *slog.Logger
}

// TradeHandler serves buy, sell and collateral endpoints.
type TradeHandler struct {
	ownershipUC usecase.OwnershipUsecase
	logger      *slog.Logger
}

// NewTradeHandler is the constructor for TradeHandler
func NewTradeHandler(params TradeHandlerParams) *TradeHandler {
	return &TradeHandler{
		ownershipUC: params.OwnershipUC,
		logger:      params.Logger,
	}
}

// UnitsRequest carries the number of units to trade, lock or release
type UnitsRequest struct {
	Units int64 `json:"units" validate:"required,gt=0"`
}

type tradeFunc func(c echo.Context, actor usecase.Actor, assetID uuid.UUID, units int64) (any, error)

// Buy purchases unallocated units of an ACTIVE asset
func (h *TradeHandler) Buy(c echo.Context) error {
	return h.trade(c, http.StatusCreated, h.order(h.ownershipUC.Buy))
}

// Sell returns units to the platform at the current unit price
func (h *TradeHandler) Sell(c echo.Context) error {
	return h.trade(c, http.StatusOK, h.order(h.ownershipUC.Sell))
}

// LockCollateral pledges units as collateral
func (h *TradeHandler) LockCollateral(c echo.Context) error {
	return h.trade(c, http.StatusOK, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID, units int64) (any, error) {
		receipt, err := h.ownershipUC.LockCollateral(c.Request().Context(), actor, &usecase.CollateralInput{
			AssetID: assetID,
			Units:   units,
		})
		if err != nil {
			return nil, err
		}

		return newCollateralReceiptView(receipt), nil
	})
}

// ReleaseCollateral moves pledged units back into the caller's balance
func (h *TradeHandler) ReleaseCollateral(c echo.Context) error {
	return h.trade(c, http.StatusOK, func(c echo.Context, actor usecase.Actor, assetID uuid.UUID, units int64) (any, error) {
		receipt, err := h.ownershipUC.ReleaseCollateral(c.Request().Context(), actor, &usecase.CollateralInput{
			AssetID: assetID,
			Units:   units,
		})
		if err != nil {
			return nil, err
		}

		return newCollateralReceiptView(receipt), nil
	})
}

// order adapts a buy or sell usecase, forwarding the Idempotency-Key header.
func (h *TradeHandler) order(
	fn func(ctx context.Context, actor usecase.Actor, input *usecase.TradeInput) (*usecase.TradeReceipt, error),
) tradeFunc {
	return func(c echo.Context, actor usecase.Actor, assetID uuid.UUID, units int64) (any, error) {
		receipt, err := fn(c.Request().Context(), actor, &usecase.TradeInput{
			AssetID:        assetID,
			Units:          units,
			IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)),
		})
		if err != nil {
			return nil, err
		}

		return newTradeReceiptView(receipt), nil
	}
}

func (h *TradeHandler) trade(c echo.Context, status int, fn tradeFunc) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	if len(c.Request().Header.Get(HeaderIdempotencyKey)) > maxIdempotencyKeyLength {
		return response.BadRequest(c, "VALIDATION_FAILED", "Idempotency-Key is too long")
	}

	var req UnitsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid units input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	out, err := fn(c, actor, assetID, req.Units)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, status, out)
}
