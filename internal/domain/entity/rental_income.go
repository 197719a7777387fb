package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeStatus tracks whether rental income has been paid out.
type IncomeStatus string

const (
	IncomeStatusPending     IncomeStatus = "PENDING"
	IncomeStatusDistributed IncomeStatus = "DISTRIBUTED"
)

// RentalIncome is rent collected for an asset over one period.
type RentalIncome struct {
	ID            uuid.UUID
	AssetID       uuid.UUID
	Amount        decimal.Decimal
	Period        string // YYYY-MM, unique per asset.
	Status        IncomeStatus
	RecordedBy    uuid.UUID
	DistributedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// YieldDistribution proves that a holder was paid for one income event.
// At most one row exists per (RentalIncomeID, UserID).
type YieldDistribution struct {
	ID             uuid.UUID
	RentalIncomeID uuid.UUID
	AssetID        uuid.UUID
	UserID         uuid.UUID
	Units          int64 // Holder balance used for the share.
	Amount         decimal.Decimal
	SettlementRef  string
	CreatedAt      time.Time
}
