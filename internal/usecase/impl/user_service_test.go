package impl

import (
	"context"
	"testing"

	"propledger/config"
	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"
	"propledger/internal/domain/repository"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterUser(t *testing.T) {
	f := newLedgerFixture(t, withConfig(func(cfg *config.Config) {
		cfg.Ledger.SeedBalance = money("250000")
	}))
	ctx := context.Background()
	actor := usecase.Actor{UserID: uuid.New(), Role: entity.RoleInvestor}

	out, err := f.users.RegisterUser(ctx, actor, &usecase.RegisterUserInput{
		Name:  " Asha ",
		Email: "Asha@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, out.User.ID)
	assert.Equal(t, "Asha", out.User.Name)
	assert.Equal(t, "asha@example.com", out.User.Email)
	assert.Equal(t, entity.RoleInvestor, out.User.Role)
	assert.True(t, money("250000").Equal(out.Wallet.CashBalance))

	history, err := f.wallets.ListHistory(ctx, actor.UserID, repository.Pagination{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.HistoryWalletOpened, history[0].Type)

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.users.RegisterUser(ctx, actor, &usecase.RegisterUserInput{Name: "Asha", Email: "other@example.com"})
		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	})

	t.Run("email taken", func(t *testing.T) {
		other := usecase.Actor{UserID: uuid.New(), Role: entity.RoleBuilder}
		_, err := f.users.RegisterUser(ctx, other, &usecase.RegisterUserInput{Name: "B", Email: "asha@example.com"})
		assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)

		_, err = f.wallets.GetWallet(ctx, other.UserID)
		assert.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	})
}

func TestUserService_RegisterUser_Rejections(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   usecase.Actor
		input   usecase.RegisterUserInput
		wantErr error
	}{
		{"admin", usecase.Actor{UserID: uuid.New(), Role: entity.RoleAdmin}, usecase.RegisterUserInput{Name: "a", Email: "a@example.com"}, domainerrors.ErrUnauthorized},
		{"anonymous", usecase.Actor{Role: entity.RoleInvestor}, usecase.RegisterUserInput{Name: "a", Email: "a@example.com"}, domainerrors.ErrUnauthorized},
		{"no name", usecase.Actor{UserID: uuid.New(), Role: entity.RoleInvestor}, usecase.RegisterUserInput{Email: "a@example.com"}, domainerrors.ErrValidationFailed},
		{"bad email", usecase.Actor{UserID: uuid.New(), Role: entity.RoleInvestor}, usecase.RegisterUserInput{Name: "a", Email: "not-an-email"}, domainerrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.RegisterUser(ctx, tt.actor, &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserService_LinkWallet(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	actor := f.register(t, entity.RoleInvestor)

	user, err := f.users.LinkWallet(ctx, actor, " 0x52908400098527886E0F7030069857D2E4169EE7 ")
	require.NoError(t, err)
	assert.True(t, user.HasLinkedWallet())

	stored, err := f.users.GetUser(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7", stored.WalletAddress)

	_, err = f.users.LinkWallet(ctx, actor, "")
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = f.users.LinkWallet(ctx, usecase.Actor{UserID: uuid.New(), Role: entity.RoleInvestor}, "0x1")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
