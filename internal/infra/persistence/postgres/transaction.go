package postgres

import (
	"context"
	"fmt"

	"propledger/internal/domain/repository"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db *gorm.DB
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds a specific GORM transaction and uses it to create
// repository instances that are bound to that single transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB // In GORM, a transaction object is also a *gorm.DB
}

func (f *gormRepositoryFactory) UserRepo() repository.UserRepository {
	return NewUserRepository(f.tx)
}

func (f *gormRepositoryFactory) AssetRepo() repository.AssetRepository {
	return NewAssetRepository(f.tx)
}

func (f *gormRepositoryFactory) WalletRepo() repository.WalletRepository {
	return NewWalletRepository(f.tx)
}

func (f *gormRepositoryFactory) HistoryRepo() repository.HistoryRepository {
	return NewHistoryRepository(f.tx)
}

func (f *gormRepositoryFactory) OwnershipRepo() repository.OwnershipRepository {
	return NewOwnershipRepository(f.tx)
}

func (f *gormRepositoryFactory) CollateralRepo() repository.CollateralRepository {
	return NewCollateralRepository(f.tx)
}

func (f *gormRepositoryFactory) RentalIncomeRepo() repository.RentalIncomeRepository {
	return NewRentalIncomeRepository(f.tx)
}

func (f *gormRepositoryFactory) YieldRepo() repository.YieldDistributionRepository {
	return NewYieldDistributionRepository(f.tx)
}

// NewRepositoryFactory binds every repository to db, outside any explicit transaction.
func NewRepositoryFactory(db *gorm.DB) repository.RepositoryFactory {
	return &gormRepositoryFactory{tx: db}
}

// NewTransactionManager is the constructor for gormTransactionManager.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Roll back on panic, then re-panic so the recover middleware sees it.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	factory := &gormRepositoryFactory{tx: tx}

	if err := fn(factory); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
