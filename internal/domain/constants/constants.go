// Package constants contains configuration values shared across layers.
package constants

const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)

// Pub/Sub providers.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Ledger store drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Settlement providers.
const (
	SettlementProviderMock  = "mock"
	SettlementProviderChain = "chain"
)

// Residual allocation policies for yield payouts.
const (
	ResidualPolicyPlatform      = "platform"
	ResidualPolicyLargestHolder = "largest_holder"
)
