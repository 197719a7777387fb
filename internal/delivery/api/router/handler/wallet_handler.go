package handler

import (
	"log/slog"
	"net/http"

	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/response"
	"propledger/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// WalletHandlerParams holds dependencies for WalletHandler, injected by Fx.
type WalletHandlerParams struct {
	fx.In

	WalletUC usecase.WalletUsecase
	Logger   *slog.Logger
}

// WalletHandler serves the caller's wallet views.
type WalletHandler struct {
	walletUC usecase.WalletUsecase
	logger   *slog.Logger
}

// NewWalletHandler is the constructor for WalletHandler
func NewWalletHandler(params WalletHandlerParams) *WalletHandler {
	return &WalletHandler{
		walletUC: params.WalletUC,
		logger:   params.Logger,
	}
}

// GetWallet returns the caller's balances
func (h *WalletHandler) GetWallet(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	wallet, err := h.walletUC.GetWallet(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newWalletView(wallet))
}

// ListHistory returns the caller's transaction history, newest first
func (h *WalletHandler) ListHistory(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	page := pagination(c)
	entries, err := h.walletUC.ListHistory(c.Request().Context(), userID, page)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Page(c, mapSlice(entries, newHistoryView), len(entries), page)
}

// ListHoldings returns the caller's positions
func (h *WalletHandler) ListHoldings(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	holdings, err := h.walletUC.ListHoldings(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, mapSlice(holdings, newHoldingView))
}

// ListCollateral returns the caller's collateral rows
func (h *WalletHandler) ListCollateral(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	rows, err := h.walletUC.ListCollateral(c.Request().Context(), userID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, mapSlice(rows, newCollateralView))
}

// ListYields returns the yield payouts the caller received
func (h *WalletHandler) ListYields(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	page := pagination(c)
	yields, err := h.walletUC.ListYields(c.Request().Context(), userID, page)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Page(c, mapSlice(yields, newYieldView), len(yields), page)
}
