package entity

import "slices"

// Action names a mutation that is subject to a role check.
type Action string

const (
	ActionCreateAsset       Action = "asset:create"
	ActionSubmitAsset       Action = "asset:submit"
	ActionVerifyAsset       Action = "asset:verify"
	ActionTokenizeAsset     Action = "asset:tokenize"
	ActionPauseAsset        Action = "asset:pause"
	ActionResumeAsset       Action = "asset:resume"
	ActionRejectAsset       Action = "asset:reject"
	ActionDisputeAsset      Action = "asset:dispute"
	ActionReconcileAsset    Action = "asset:reconcile"
	ActionBuyUnits          Action = "units:buy"
	ActionSellUnits         Action = "units:sell"
	ActionLockCollateral    Action = "collateral:lock"
	ActionReleaseCollateral Action = "collateral:release"
	ActionRecordIncome      Action = "income:record"
	ActionRunDistribution   Action = "distribution:run"
)

//nolint:gochecknoglobals
var permissions = map[Action][]Role{
	ActionCreateAsset:       {RoleBuilder},
	ActionSubmitAsset:       {RoleBuilder},
	ActionVerifyAsset:       {RoleAdmin},
	ActionTokenizeAsset:     {RoleBuilder, RoleAdmin},
	ActionPauseAsset:        {RoleAdmin},
	ActionResumeAsset:       {RoleAdmin},
	ActionRejectAsset:       {RoleAdmin},
	ActionDisputeAsset:      {RoleAdmin},
	ActionReconcileAsset:    {RoleAdmin},
	ActionBuyUnits:          {RoleInvestor},
	ActionSellUnits:         {RoleInvestor},
	ActionLockCollateral:    {RoleInvestor},
	ActionReleaseCollateral: {RoleInvestor},
	ActionRecordIncome:      {RoleBuilder, RoleAdmin},
	ActionRunDistribution:   {RoleAdmin},
}

// Authorize is the single capability check used before any ledger mutation.
func Authorize(role Role, action Action) bool {
	allowed, ok := permissions[action]
	if !ok {
		return false
	}

	return slices.Contains(allowed, role)
}

// RequiresAssetOwnership reports whether a builder performing the action must own the asset.
// Admins are never subject to the ownership check.
func RequiresAssetOwnership(action Action) bool {
	switch action {
	case ActionSubmitAsset, ActionTokenizeAsset, ActionRecordIncome:
		return true
	default:
		return false
	}
}
