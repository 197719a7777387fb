package handler

import (
	"time"

	"propledger/internal/domain/entity"
	"propledger/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money fields are rendered as decimal strings.

type UserView struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          entity.Role `json:"role"`
	WalletAddress string      `json:"wallet_address,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func newUserView(u *entity.User) *UserView {
	return &UserView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt,
	}
}

type WalletView struct {
	UserID                uuid.UUID       `json:"user_id"`
	CashBalance           decimal.Decimal `json:"cash_balance"`
	TotalInvested         decimal.Decimal `json:"total_invested"`
	LockedCollateralValue decimal.Decimal `json:"locked_collateral_value"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func newWalletView(w *entity.Wallet) *WalletView {
	return &WalletView{
		UserID:                w.UserID,
		CashBalance:           w.CashBalance,
		TotalInvested:         w.TotalInvested,
		LockedCollateralValue: w.LockedCollateralValue,
		UpdatedAt:             w.UpdatedAt,
	}
}

type AssetView struct {
	ID               uuid.UUID          `json:"id"`
	OwnerID          uuid.UUID          `json:"owner_id"`
	Name             string             `json:"name"`
	Location         string             `json:"location,omitempty"`
	Description      string             `json:"description,omitempty"`
	RiskTier         string             `json:"risk_tier,omitempty"`
	Valuation        decimal.Decimal    `json:"valuation"`
	Status           entity.AssetStatus `json:"status"`
	TotalUnits       int64              `json:"total_units"`
	UnitPrice        decimal.Decimal    `json:"unit_price"`
	UnallocatedUnits int64              `json:"unallocated_units"`
	VerificationHash string             `json:"verification_hash,omitempty"`
	VerifiedAt       *time.Time         `json:"verified_at,omitempty"`
	TokenizedAt      *time.Time         `json:"tokenized_at,omitempty"`
	StatusReason     string             `json:"status_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newAssetView(a *entity.Asset) *AssetView {
	return &AssetView{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		Name:             a.Name,
		Location:         a.Location,
		Description:      a.Description,
		RiskTier:         a.RiskTier,
		Valuation:        a.Valuation,
		Status:           a.Status,
		TotalUnits:       a.TotalUnits,
		UnitPrice:        a.UnitPrice,
		UnallocatedUnits: a.UnallocatedUnits,
		VerificationHash: a.VerificationHash,
		VerifiedAt:       a.VerifiedAt,
		TokenizedAt:      a.TokenizedAt,
		StatusReason:     a.StatusReason,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type HistoryView struct {
	ID            uuid.UUID          `json:"id"`
	AssetID       *uuid.UUID         `json:"asset_id,omitempty"`
	Type          entity.HistoryType `json:"type"`
	Description   string             `json:"description"`
	Amount        *decimal.Decimal   `json:"amount,omitempty"`
	Units         int64              `json:"units,omitempty"`
	BalanceAfter  *decimal.Decimal   `json:"balance_after,omitempty"`
	SettlementRef string             `json:"settlement_ref,omitempty"`
	Metadata      map[string]any     `json:"metadata,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func newHistoryView(h *entity.ActionHistory) *HistoryView {
	v := &HistoryView{
		ID:            h.ID,
		AssetID:       h.AssetID,
		Type:          h.Type,
		Description:   h.Description,
		Units:         h.Units,
		SettlementRef: h.SettlementRef,
		Metadata:      h.Metadata,
		CreatedAt:     h.CreatedAt,
	}
	if h.Amount.Valid {
		v.Amount = &h.Amount.Decimal
	}
	if h.BalanceAfter.Valid {
		v.BalanceAfter = &h.BalanceAfter.Decimal
	}

	return v
}

type HoldingView struct {
	AssetID     uuid.UUID          `json:"asset_id"`
	AssetName   string             `json:"asset_name"`
	Status      entity.AssetStatus `json:"status"`
	Units       int64              `json:"units"`
	LockedUnits int64              `json:"locked_units"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	MarketValue decimal.Decimal    `json:"market_value"`
}

func newHoldingView(h *usecase.Holding) *HoldingView {
	return &HoldingView{
		AssetID:     h.AssetID,
		AssetName:   h.AssetName,
		Status:      h.Status,
		Units:       h.Units,
		LockedUnits: h.LockedUnits,
		UnitPrice:   h.UnitPrice,
		MarketValue: h.MarketValue,
	}
}

type CollateralView struct {
	ID           uuid.UUID               `json:"id"`
	AssetID      uuid.UUID               `json:"asset_id"`
	LockedUnits  int64                   `json:"locked_units"`
	LockedValue  decimal.Decimal         `json:"locked_value"`
	CreditIssued decimal.Decimal         `json:"credit_issued"`
	Status       entity.CollateralStatus `json:"status"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func newCollateralView(c *entity.Collateral) *CollateralView {
	return &CollateralView{
		ID:           c.ID,
		AssetID:      c.AssetID,
		LockedUnits:  c.LockedUnits,
		LockedValue:  c.LockedValue,
		CreditIssued: c.CreditIssued,
		Status:       c.Status,
		UpdatedAt:    c.UpdatedAt,
	}
}

type YieldView struct {
	ID             uuid.UUID       `json:"id"`
	RentalIncomeID uuid.UUID       `json:"rental_income_id"`
	AssetID        uuid.UUID       `json:"asset_id"`
	Units          int64           `json:"units"`
	Amount         decimal.Decimal `json:"amount"`
	SettlementRef  string          `json:"settlement_ref"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newYieldView(y *entity.YieldDistribution) *YieldView {
	return &YieldView{
		ID:             y.ID,
		RentalIncomeID: y.RentalIncomeID,
		AssetID:        y.AssetID,
		Units:          y.Units,
		Amount:         y.Amount,
		SettlementRef:  y.SettlementRef,
		CreatedAt:      y.CreatedAt,
	}
}

type IncomeView struct {
	ID            uuid.UUID           `json:"id"`
	AssetID       uuid.UUID           `json:"asset_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Period        string              `json:"period"`
	Status        entity.IncomeStatus `json:"status"`
	DistributedAt *time.Time          `json:"distributed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newIncomeView(i *entity.RentalIncome) *IncomeView {
	return &IncomeView{
		ID:            i.ID,
		AssetID:       i.AssetID,
		Amount:        i.Amount,
		Period:        i.Period,
		Status:        i.Status,
		DistributedAt: i.DistributedAt,
		CreatedAt:     i.CreatedAt,
	}
}

type TradeReceiptView struct {
	HistoryID        uuid.UUID          `json:"history_id"`
	Type             entity.HistoryType `json:"type"`
	AssetID          uuid.UUID          `json:"asset_id"`
	Units            int64              `json:"units"`
	UnitPrice        decimal.Decimal    `json:"unit_price"`
	Amount           decimal.Decimal    `json:"amount"`
	CashBalance      decimal.Decimal    `json:"cash_balance"`
	OwnershipBalance int64              `json:"ownership_balance"`
	SettlementRef    string             `json:"settlement_ref"`
	Replayed         bool               `json:"replayed"`
}

func newTradeReceiptView(r *usecase.TradeReceipt) *TradeReceiptView {
	return &TradeReceiptView{
		HistoryID:        r.HistoryID,
		Type:             r.Type,
		AssetID:          r.AssetID,
		Units:            r.Units,
		UnitPrice:        r.UnitPrice,
		Amount:           r.Amount,
		CashBalance:      r.CashBalance,
		OwnershipBalance: r.OwnershipBalance,
		SettlementRef:    r.SettlementRef,
		Replayed:         r.Replayed,
	}
}

type CollateralReceiptView struct {
	Collateral       *CollateralView `json:"collateral"`
	CreditDelta      decimal.Decimal `json:"credit_delta"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	OwnershipBalance int64           `json:"ownership_balance"`
	SettlementRef    string          `json:"settlement_ref"`
}

func newCollateralReceiptView(r *usecase.CollateralReceipt) *CollateralReceiptView {
	return &CollateralReceiptView{
		Collateral:       newCollateralView(r.Collateral),
		CreditDelta:      r.CreditDelta,
		CashBalance:      r.CashBalance,
		OwnershipBalance: r.OwnershipBalance,
		SettlementRef:    r.SettlementRef,
	}
}

type AssetResultView struct {
	AssetID        uuid.UUID       `json:"asset_id"`
	IncomeIDs      []uuid.UUID     `json:"income_ids"`
	HolderCount    int             `json:"holder_count"`
	Payouts        int             `json:"payouts"`
	AlreadyApplied int             `json:"already_applied"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Retained       decimal.Decimal `json:"retained"`
	Error          string          `json:"error,omitempty"`
}

type ReportView struct {
	RunID      uuid.UUID          `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Skipped    bool               `json:"skipped"`
	Failed     int                `json:"failed"`
	Assets     []*AssetResultView `json:"assets"`
}

func newReportView(r *usecase.DistributionReport) *ReportView {
	v := &ReportView{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Skipped:    r.Skipped,
		Failed:     len(r.Failed()),
		Assets:     make([]*AssetResultView, 0, len(r.Assets)),
	}
	for _, res := range r.Assets {
		av := &AssetResultView{
			AssetID:        res.AssetID,
			IncomeIDs:      res.IncomeIDs,
			HolderCount:    res.HolderCount,
			Payouts:        res.Payouts,
			AlreadyApplied: res.AlreadyApplied,
			TotalPaid:      res.TotalPaid,
			Retained:       res.Retained,
		}
		// Only the message; internal causes are logged by the engine.
		if res.Err != nil {
			av.Error = "distribution rolled back"
		}
		v.Assets = append(v.Assets, av)
	}

	return v
}

func mapSlice[T, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}

	return out
}
