package impl

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"propledger/config"
	deliverycontext "propledger/internal/delivery/context"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	seedBalance decimal.Decimal
	logger      *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Config    *config.Config
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		seedBalance: params.Config.Ledger.SeedBalance,
		logger:      params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RegisterUser creates the ledger account for the authenticated caller together with
// its wallet. Admins operate the platform without a wallet and cannot register.
func (srv *userService) RegisterUser(ctx context.Context, actor usecase.Actor, input *usecase.RegisterUserInput) (*usecase.RegisterOutput, error) {
	if actor.UserID == uuid.Nil || !actor.Role.IsValid() {
		return nil, domainerrors.ErrUnauthorized.WithDetails("caller identity is incomplete")
	}
	if actor.Role == entity.RoleAdmin {
		return nil, domainerrors.ErrUnauthorized.WithDetails("admin accounts do not hold wallets")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:            actor.UserID,
		Email:         email,
		Name:          name,
		Role:          actor.Role,
		WalletAddress: strings.TrimSpace(input.WalletAddress),
	}
	wallet := &entity.Wallet{
		UserID:      actor.UserID,
		CashBalance: srv.seedBalance,
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		if err := repos.UserRepo().Create(ctx, user); err != nil {
			return err
		}
		if err := repos.WalletRepo().Create(ctx, wallet); err != nil {
			return err
		}

		return repos.HistoryRepo().Append(ctx, &entity.ActionHistory{
			ID:           newID(),
			UserID:       user.ID,
			Type:         entity.HistoryWalletOpened,
			Description:  "Wallet opened",
			Amount:       nullDecimal(wallet.CashBalance),
			BalanceAfter: nullDecimal(wallet.CashBalance),
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to register user")
	}

	srv.log(ctx).Info("User registered",
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role.String()),
	)

	return &usecase.RegisterOutput{User: user, Wallet: wallet}, nil
}

func (srv *userService) LinkWallet(ctx context.Context, actor usecase.Actor, address string) (*entity.User, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, validationError("wallet address is required")
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		var err error
		user, err = repos.UserRepo().FindByID(ctx, actor.UserID)
		if err != nil {
			return err
		}

		user.WalletAddress = address

		return repos.UserRepo().Update(ctx, user)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to link wallet")
	}

	srv.log(ctx).Info("Wallet address linked", slog.String("user_id", user.ID.String()))

	return user, nil
}

func (srv *userService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", validationError("email %q is not a valid address", raw)
	}

	return strings.ToLower(addr.Address), nil
}
