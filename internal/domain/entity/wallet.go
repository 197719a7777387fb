package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's cash position. It is created together with the user and never deleted.
type Wallet struct {
	UserID                uuid.UUID
	CashBalance           decimal.Decimal // Never negative.
	TotalInvested         decimal.Decimal
	LockedCollateralValue decimal.Decimal
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HistoryType classifies ledger entries.
type HistoryType string

const (
	HistoryWalletOpened      HistoryType = "WALLET_OPENED"
	HistoryAssetCreated      HistoryType = "ASSET_CREATED"
	HistoryAssetSubmitted    HistoryType = "ASSET_SUBMITTED"
	HistoryAssetVerified     HistoryType = "ASSET_VERIFIED"
	HistoryAssetTokenized    HistoryType = "ASSET_TOKENIZED"
	HistoryAssetPaused       HistoryType = "ASSET_PAUSED"
	HistoryAssetResumed      HistoryType = "ASSET_RESUMED"
	HistoryAssetRejected     HistoryType = "ASSET_REJECTED"
	HistoryAssetDisputed     HistoryType = "ASSET_DISPUTED"
	HistoryBuy               HistoryType = "BUY"
	HistorySell              HistoryType = "SELL"
	HistoryCollateralLock    HistoryType = "COLLATERAL_LOCK"
	HistoryCollateralRelease HistoryType = "COLLATERAL_RELEASE"
	HistoryYield             HistoryType = "YIELD"
	HistoryIncomeRecorded    HistoryType = "INCOME_RECORDED"
)

// ActionHistory is an immutable ledger entry. Entries are only ever appended.
type ActionHistory struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	AssetID        *uuid.UUID
	Type           HistoryType
	Description    string
	Amount         decimal.NullDecimal // Cash moved, when the entry moves cash.
	Units          int64
	BalanceAfter   decimal.NullDecimal // Wallet cash balance once the entry was applied.
	SettlementRef  string
	IdempotencyKey string
	Metadata       map[string]any
	CreatedAt      time.Time
}
