package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"propledger/internal/delivery/api/middleware"
	"propledger/internal/delivery/api/router/handler"
	"propledger/internal/delivery/api/validator"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/domain/service"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubTokens map[string]*service.Claims

func (s stubTokens) ValidateToken(token string) (*service.Claims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}

	return claims, nil
}

// The embedded interfaces panic on methods a test did not expect.

type mockUserUC struct {
	mock.Mock
	usecase.UserUsecase
}

func (m *mockUserUC) RegisterUser(ctx context.Context, actor usecase.Actor, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	args := m.Called(ctx, actor, input)
	out, _ := args.Get(0).(*usecase.RegisterOutput)

	return out, args.Error(1)
}

type mockAssetUC struct {
	mock.Mock
	usecase.AssetUsecase
}

func (m *mockAssetUC) Tokenize(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, input *usecase.TokenizeInput) (*entity.Asset, error) {
	args := m.Called(ctx, actor, assetID, input)
	asset, _ := args.Get(0).(*entity.Asset)

	return asset, args.Error(1)
}

func (m *mockAssetUC) Pause(ctx context.Context, actor usecase.Actor, assetID uuid.UUID, reason string) (*entity.Asset, error) {
	args := m.Called(ctx, actor, assetID, reason)
	asset, _ := args.Get(0).(*entity.Asset)

	return asset, args.Error(1)
}

func (m *mockAssetUC) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*entity.Asset, error) {
	args := m.Called(ctx, filter)
	assets, _ := args.Get(0).([]*entity.Asset)

	return assets, args.Error(1)
}

type mockOwnershipUC struct {
	mock.Mock
	usecase.OwnershipUsecase
}

func (m *mockOwnershipUC) Buy(ctx context.Context, actor usecase.Actor, input *usecase.TradeInput) (*usecase.TradeReceipt, error) {
	args := m.Called(ctx, actor, input)
	receipt, _ := args.Get(0).(*usecase.TradeReceipt)

	return receipt, args.Error(1)
}

type mockWalletUC struct {
	mock.Mock
	usecase.WalletUsecase
}

func (m *mockWalletUC) GetWallet(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	args := m.Called(ctx, userID)
	wallet, _ := args.Get(0).(*entity.Wallet)

	return wallet, args.Error(1)
}

type mockYieldUC struct {
	mock.Mock
	usecase.YieldUsecase
}

func (m *mockYieldUC) TriggerDistribution(ctx context.Context, actor usecase.Actor) (*usecase.TriggerOutcome, error) {
	args := m.Called(ctx, actor)
	outcome, _ := args.Get(0).(*usecase.TriggerOutcome)

	return outcome, args.Error(1)
}

type routerFixture struct {
	e         *echo.Echo
	users     *mockUserUC
	assets    *mockAssetUC
	ownership *mockOwnershipUC
	wallets   *mockWalletUC
	yields    *mockYieldUC

	investor usecase.Actor
	admin    usecase.Actor
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &routerFixture{
		e:         echo.New(),
		users:     &mockUserUC{},
		assets:    &mockAssetUC{},
		ownership: &mockOwnershipUC{},
		wallets:   &mockWalletUC{},
		yields:    &mockYieldUC{},
		investor:  usecase.Actor{UserID: uuid.New(), Role: entity.RoleInvestor},
		admin:     usecase.Actor{UserID: uuid.New(), Role: entity.RoleAdmin},
	}
	tokens := stubTokens{
		"investor": {UserID: f.investor.UserID, Role: f.investor.Role},
		"admin":    {UserID: f.admin.UserID, Role: f.admin.Role},
	}

	f.e.Validator = validator.New()
	f.e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	r := NewRouter(RouterParams{
		UserHandler:    handler.NewUserHandler(handler.UserHandlerParams{UserUC: f.users, Logger: logger}),
		AssetHandler:   handler.NewAssetHandler(handler.AssetHandlerParams{AssetUC: f.assets, Logger: logger}),
		TradeHandler:   handler.NewTradeHandler(handler.TradeHandlerParams{OwnershipUC: f.ownership, Logger: logger}),
		WalletHandler:  handler.NewWalletHandler(handler.WalletHandlerParams{WalletUC: f.wallets, Logger: logger}),
		YieldHandler:   handler.NewYieldHandler(handler.YieldHandlerParams{YieldUC: f.yields, Logger: logger}),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthMiddlewareParams{TokenSvc: tokens, Logger: logger}),
	})
	r.RegisterRoutes(f.e)

	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.assets.AssertExpectations(t)
		f.ownership.AssertExpectations(t)
		f.wallets.AssertExpectations(t)
		f.yields.AssertExpectations(t)
	})

	return f
}

func (f *routerFixture) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
		Page      *struct {
			Limit   int  `json:"limit"`
			Offset  int  `json:"offset"`
			HasMore bool `json:"has_more"`
		} `json:"page"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	return env
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decode(t, rec).Error.Code)
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/wallet", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "MISSING_TOKEN", decode(t, rec).Error.Code)

	rec = f.do(http.MethodGet, "/api/v1/wallet", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decode(t, rec).Error.Code)
}

func TestRouter_GetWallet(t *testing.T) {
	f := newRouterFixture(t)

	f.wallets.On("GetWallet", mock.Anything, f.investor.UserID).Return(&entity.Wallet{
		UserID:      f.investor.UserID,
		CashBalance: decimal.RequireFromString("1234.50"),
	}, nil).Once()

	rec := f.do(http.MethodGet, "/api/v1/wallet", "investor", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var wallet handler.WalletView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &wallet))
	assert.True(t, wallet.CashBalance.Equal(decimal.RequireFromString("1234.5")))
	assert.Contains(t, rec.Body.String(), `"cash_balance":"1234.5"`)
}

func TestRouter_Buy(t *testing.T) {
	assetID := uuid.New()

	t.Run("forwards idempotency key", func(t *testing.T) {
		f := newRouterFixture(t)
		f.ownership.On("Buy", mock.Anything, f.investor, &usecase.TradeInput{
			AssetID:        assetID,
			Units:          3,
			IdempotencyKey: "order-1",
		}).Return(&usecase.TradeReceipt{
			AssetID:          assetID,
			Units:            3,
			Amount:           decimal.NewFromInt(15000),
			OwnershipBalance: 3,
		}, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/assets/"+assetID.String()+"/buy", "investor",
			`{"units":3}`, handler.HeaderIdempotencyKey, "order-1")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var receipt handler.TradeReceiptView
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &receipt))
		assert.EqualValues(t, 3, receipt.OwnershipBalance)
	})

	t.Run("maps domain errors", func(t *testing.T) {
		f := newRouterFixture(t)
		f.ownership.On("Buy", mock.Anything, f.investor, mock.Anything).
			Return(nil, errors.Wrap(domainerrors.ErrInsufficientFunds.WithDetails("cost 15000.00"), "buy failed")).Once()

		rec := f.do(http.MethodPost, "/api/v1/assets/"+assetID.String()+"/buy", "investor", `{"units":3}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		env := decode(t, rec)
		assert.Equal(t, "INSUFFICIENT_FUNDS", env.Error.Code)
		assert.Equal(t, "cost 15000.00", env.Error.Details)
	})

	t.Run("hides internal errors", func(t *testing.T) {
		f := newRouterFixture(t)
		f.ownership.On("Buy", mock.Anything, f.investor, mock.Anything).
			Return(nil, errors.New("connection reset")).Once()

		rec := f.do(http.MethodPost, "/api/v1/assets/"+assetID.String()+"/buy", "investor", `{"units":3}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decode(t, rec).Error.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})

	t.Run("rejects bad input", func(t *testing.T) {
		f := newRouterFixture(t)

		tests := []struct {
			name string
			path string
			body string
		}{
			{name: "zero units", path: assetID.String(), body: `{"units":0}`},
			{name: "negative units", path: assetID.String(), body: `{"units":-2}`},
			{name: "malformed body", path: assetID.String(), body: `{"units":`},
			{name: "bad asset id", path: "not-a-uuid", body: `{"units":1}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := f.do(http.MethodPost, "/api/v1/assets/"+tt.path+"/buy", "investor", tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestRouter_Tokenize(t *testing.T) {
	assetID := uuid.New()
	path := "/api/v1/assets/" + assetID.String() + "/tokenize"

	t.Run("parses decimal price", func(t *testing.T) {
		f := newRouterFixture(t)
		f.assets.On("Tokenize", mock.Anything, f.admin, assetID, mock.MatchedBy(func(in *usecase.TokenizeInput) bool {
			return in.TotalUnits == 100 && in.UnitPrice.Equal(decimal.RequireFromString("5000.25"))
		})).Return(&entity.Asset{ID: assetID, Status: entity.AssetStatusActive, TotalUnits: 100}, nil).Once()

		rec := f.do(http.MethodPost, path, "admin", `{"total_units":100,"unit_price":"5000.25"}`)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("rejects sub-cent price", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, path, "admin", `{"total_units":100,"unit_price":"10.001"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode(t, rec).Error.Message, "UnitPrice")
	})
}

func TestRouter_ListAssets(t *testing.T) {
	t.Run("reports full page", func(t *testing.T) {
		f := newRouterFixture(t)
		f.assets.On("ListAssets", mock.Anything, repository.AssetFilter{
			Status: entity.AssetStatusActive,
			Page:   repository.Pagination{Limit: 2, Offset: 4},
		}).Return([]*entity.Asset{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

		rec := f.do(http.MethodGet, "/api/v1/assets?status=ACTIVE&limit=2&offset=4", "investor", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		env := decode(t, rec)
		require.NotNil(t, env.Meta.Page)
		assert.Equal(t, 2, env.Meta.Page.Limit)
		assert.Equal(t, 4, env.Meta.Page.Offset)
		assert.True(t, env.Meta.Page.HasMore)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodGet, "/api/v1/assets?status=SOLD", "investor", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.assets.AssertNotCalled(t, "ListAssets", mock.Anything, mock.Anything)
	})
}

func TestRouter_PauseWithoutBody(t *testing.T) {
	f := newRouterFixture(t)
	assetID := uuid.New()

	f.assets.On("Pause", mock.Anything, f.admin, assetID, "").
		Return(&entity.Asset{ID: assetID, Status: entity.AssetStatusPaused}, nil).Once()

	rec := f.do(http.MethodPost, "/api/v1/assets/"+assetID.String()+"/pause", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_Register(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/users", "investor",
		`{"name":"Ada","email":"ada@example.com","wallet_address":"0x123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Message, "Ethereum address")

	f.users.On("RegisterUser", mock.Anything, f.investor, &usecase.RegisterUserInput{
		Name:  "Ada",
		Email: "ada@example.com",
	}).Return(&usecase.RegisterOutput{
		User:   &entity.User{ID: f.investor.UserID, Name: "Ada", Email: "ada@example.com", Role: entity.RoleInvestor},
		Wallet: &entity.Wallet{UserID: f.investor.UserID},
	}, nil).Once()

	rec = f.do(http.MethodPost, "/api/v1/users", "investor", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRouter_TriggerDistribution(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := newRouterFixture(t)

		rec := f.do(http.MethodPost, "/api/v1/admin/distributions/run", "investor", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("queued", func(t *testing.T) {
		f := newRouterFixture(t)
		f.yields.On("TriggerDistribution", mock.Anything, f.admin).
			Return(&usecase.TriggerOutcome{Queued: true, RequestID: "req-1"}, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/admin/distributions/run", "admin", "")
		require.Equal(t, http.StatusAccepted, rec.Code)

		var resp handler.TriggerResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
		assert.True(t, resp.Queued)
		assert.Equal(t, "req-1", resp.RequestID)
		assert.Nil(t, resp.Report)
	})

	t.Run("inline report", func(t *testing.T) {
		f := newRouterFixture(t)
		report := &usecase.DistributionReport{
			RunID: uuid.New(),
			Assets: []usecase.AssetDistributionResult{
				{AssetID: uuid.New(), Payouts: 2, TotalPaid: decimal.NewFromInt(100000)},
				{AssetID: uuid.New(), Err: errors.New("settlement down")},
			},
		}
		f.yields.On("TriggerDistribution", mock.Anything, f.admin).
			Return(&usecase.TriggerOutcome{RequestID: "req-2", Report: report}, nil).Once()

		rec := f.do(http.MethodPost, "/api/v1/admin/distributions/run", "admin", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.TriggerResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
		require.NotNil(t, resp.Report)
		assert.Equal(t, 1, resp.Report.Failed)
		assert.NotContains(t, rec.Body.String(), "settlement down")
	})
}
