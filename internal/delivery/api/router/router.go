// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/router/handler"
	"propledger/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	AssetHandler   *handler.AssetHandler
	TradeHandler   *handler.TradeHandler
	WalletHandler  *handler.WalletHandler
	YieldHandler   *handler.YieldHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	assetHandler   *handler.AssetHandler
	tradeHandler   *handler.TradeHandler
	walletHandler  *handler.WalletHandler
	yieldHandler   *handler.YieldHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		assetHandler:   params.AssetHandler,
		tradeHandler:   params.TradeHandler,
		walletHandler:  params.WalletHandler,
		yieldHandler:   params.YieldHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// API v1 routes
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate) // All API v1 routes require authentication

	usersGroup := apiV1.Group("/users")
	{
		usersGroup.POST("", r.userHandler.Register)
		usersGroup.GET("/me", r.userHandler.GetProfile)
		usersGroup.PUT("/me/wallet-address", r.userHandler.LinkWallet)
	}

	// Role and ownership checks for lifecycle actions live in the usecases.
	assetsGroup := apiV1.Group("/assets")
	{
		assetsGroup.POST("", r.assetHandler.CreateAsset)
		assetsGroup.GET("", r.assetHandler.ListAssets)
		assetsGroup.GET("/:id", r.assetHandler.GetAsset)
		assetsGroup.POST("/:id/submit", r.assetHandler.SubmitForAudit)
		assetsGroup.POST("/:id/verify", r.assetHandler.Verify)
		assetsGroup.POST("/:id/tokenize", r.assetHandler.Tokenize)
		assetsGroup.POST("/:id/pause", r.assetHandler.Pause)
		assetsGroup.POST("/:id/resume", r.assetHandler.Resume)
		assetsGroup.POST("/:id/reject", r.assetHandler.Reject)
		assetsGroup.POST("/:id/dispute", r.assetHandler.Dispute)
		assetsGroup.GET("/:id/reconcile", r.assetHandler.Reconcile)

		assetsGroup.GET("/:id/income", r.yieldHandler.ListIncome)
		assetsGroup.POST("/:id/income", r.yieldHandler.RecordIncome)

		assetsGroup.POST("/:id/buy", r.tradeHandler.Buy)
		assetsGroup.POST("/:id/sell", r.tradeHandler.Sell)
		assetsGroup.POST("/:id/collateral/lock", r.tradeHandler.LockCollateral)
		assetsGroup.POST("/:id/collateral/release", r.tradeHandler.ReleaseCollateral)
	}

	walletGroup := apiV1.Group("/wallet")
	{
		walletGroup.GET("", r.walletHandler.GetWallet)
		walletGroup.GET("/history", r.walletHandler.ListHistory)
		walletGroup.GET("/holdings", r.walletHandler.ListHoldings)
		walletGroup.GET("/collateral", r.walletHandler.ListCollateral)
		walletGroup.GET("/yields", r.walletHandler.ListYields)
	}

	// Admin routes that require authentication and "ADMIN" role
	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		adminGroup.POST("/distributions/run", r.yieldHandler.TriggerDistribution)
	}
}
