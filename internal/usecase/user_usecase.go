package usecase

import (
	"context"

	"propledger/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterUserInput defines the profile data for a new ledger account.
// The id and role come from the caller's token.
type RegisterUserInput struct {
	Name          string
	Email         string
	WalletAddress string
}

// --- Output DTOs ---

// RegisterOutput returns the created user together with the wallet opened for it.
type RegisterOutput struct {
	User   *entity.User
	Wallet *entity.Wallet
}

// UserUsecase defines the interface for account operations.
type UserUsecase interface {
	RegisterUser(ctx context.Context, actor Actor, input *RegisterUserInput) (*RegisterOutput, error)
	LinkWallet(ctx context.Context, actor Actor, address string) (*entity.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
