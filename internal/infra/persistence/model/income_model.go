package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RentalIncomeModel mirrors the 'rental_incomes' table. One row per asset and period.
type RentalIncomeModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AssetID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_income_asset_period,priority:1"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null;check:amount > 0"`
	Period        string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_income_asset_period,priority:2"`
	Status        string          `gorm:"type:varchar(16);not null;index"`
	RecordedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	DistributedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (RentalIncomeModel) TableName() string {
	return "rental_incomes"
}

// YieldDistributionModel mirrors the 'yield_distributions' table.
// The unique (rental_income_id, user_id) pair is the durable proof of payment.
type YieldDistributionModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RentalIncomeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_yield_income_user,priority:1"`
	AssetID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_yield_income_user,priority:2;index"`
	Units          int64           `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	SettlementRef  string          `gorm:"type:varchar(128)"`
	CreatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (YieldDistributionModel) TableName() string {
	return "yield_distributions"
}

// All lists every model managed by the ledger store, in dependency order.
func All() []any {
	return []any{
		&UserModel{},
		&AssetModel{},
		&WalletModel{},
		&ActionHistoryModel{},
		&OwnershipModel{},
		&CollateralModel{},
		&RentalIncomeModel{},
		&YieldDistributionModel{},
	}
}
