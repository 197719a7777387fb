package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// WalletModel mirrors the 'wallets' table. One row per user.
type WalletModel struct {
	UserID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CashBalance           decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:cash_balance >= 0"`
	TotalInvested         decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	LockedCollateralValue decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (WalletModel) TableName() string {
	return "wallets"
}

// ActionHistoryModel mirrors the append-only 'action_histories' table.
// An idempotency key is unique per user when present.
type ActionHistoryModel struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID           `gorm:"type:uuid;not null;index:idx_history_user_created,priority:1;uniqueIndex:idx_history_idempotency,priority:1,where:idempotency_key <> ''"`
	AssetID        *uuid.UUID          `gorm:"type:uuid;index"`
	Type           string              `gorm:"type:varchar(32);not null"`
	Description    string              `gorm:"type:text"`
	Amount         decimal.NullDecimal `gorm:"type:numeric(20,2)"`
	Units          int64               `gorm:"not null;default:0"`
	BalanceAfter   decimal.NullDecimal `gorm:"type:numeric(20,2)"`
	SettlementRef  string              `gorm:"type:varchar(128)"`
	IdempotencyKey string              `gorm:"type:varchar(128);not null;default:'';uniqueIndex:idx_history_idempotency,priority:2,where:idempotency_key <> ''"`
	Metadata       datatypes.JSON      `gorm:"type:jsonb"`
	CreatedAt      time.Time           `gorm:"not null;index:idx_history_user_created,priority:2,sort:desc"`
}

// TableName explicitly sets the table name for GORM.
func (ActionHistoryModel) TableName() string {
	return "action_histories"
}
