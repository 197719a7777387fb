package handler

import (
	"log/slog"
	"net/http"

	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/response"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// YieldHandlerParams holds dependencies for YieldHandler, injected by Fx.
type YieldHandlerParams struct {
	fx.In

	YieldUC usecase.YieldUsecase
	Logger  *slog.Logger
}

// YieldHandler serves rental income and distribution endpoints.
type YieldHandler struct {
	yieldUC usecase.YieldUsecase
	logger  *slog.Logger
}

// NewYieldHandler is the constructor for YieldHandler
func NewYieldHandler(params YieldHandlerParams) *YieldHandler {
	return &YieldHandler{
		yieldUC: params.YieldUC,
		logger:  params.Logger,
	}
}

// RecordIncomeRequest represents rent collected for one month
type RecordIncomeRequest struct {
	Amount string `json:"amount" validate:"required,money"`
	Period string `json:"period" validate:"required,period"`
}

// TriggerResponse reports an operator-triggered distribution
type TriggerResponse struct {
	Queued    bool        `json:"queued"`
	RequestID string      `json:"request_id"`
	Report    *ReportView `json:"report,omitempty"`
}

// RecordIncome records rental income for a tokenized asset
func (h *YieldHandler) RecordIncome(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	var req RecordIncomeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid income input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	income, err := h.yieldUC.RecordIncome(c.Request().Context(), actor, &usecase.RecordIncomeInput{
		AssetID: assetID,
		Amount:  decimal.RequireFromString(req.Amount),
		Period:  req.Period,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newIncomeView(income))
}

// ListIncome lists recorded income of an asset
func (h *YieldHandler) ListIncome(c echo.Context) error {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid asset ID")
	}

	incomes, err := h.yieldUC.ListIncome(c.Request().Context(), assetID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, mapSlice(incomes, newIncomeView))
}

// TriggerDistribution starts a distribution run on operator request
func (h *YieldHandler) TriggerDistribution(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user identity in token")
	}

	outcome, err := h.yieldUC.TriggerDistribution(c.Request().Context(), actor)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	resp := &TriggerResponse{Queued: outcome.Queued, RequestID: outcome.RequestID}
	if outcome.Report != nil {
		resp.Report = newReportView(outcome.Report)
	}

	status := http.StatusOK
	if outcome.Queued {
		status = http.StatusAccepted
	}

	return response.Success(c, status, resp)
}
