package config

import (
	"os"
	"path/filepath"
	"testing"

	"propledger/internal/domain/constants"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerOnly struct {
	Ledger       LedgerConfig       `json:"ledger" yaml:"ledger"`
	Distribution DistributionConfig `json:"distribution" yaml:"distribution"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledgertest.yaml"), []byte(body), 0o600))

	return dir
}

func TestLoadWithEnv_DecodesDecimals(t *testing.T) {
	dir := writeConfig(t, `
ledger:
  seedBalance: "100000.50"
  collateralCreditRatio: 0.6
distribution:
  residualPolicy: largest_holder
  workers: 2
`)
	t.Chdir(dir)

	cfg, err := LoadWithEnv[ledgerOnly]("ledgertest")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("100000.50").Equal(cfg.Ledger.SeedBalance))
	assert.True(t, decimal.RequireFromString("0.6").Equal(cfg.Ledger.CollateralCreditRatio))
	assert.Equal(t, constants.ResidualPolicyLargestHolder, cfg.Distribution.ResidualPolicy)
	assert.Equal(t, 2, cfg.Distribution.Workers)
}

func TestLoadWithEnv_EnvOverridesDecimal(t *testing.T) {
	dir := writeConfig(t, `
ledger:
  collateralCreditRatio: 0
`)
	t.Chdir(dir)
	t.Setenv("LEDGER_COLLATERALCREDITRATIO", "0.45")

	cfg, err := LoadWithEnv[ledgerOnly]("ledgertest")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.45").Equal(cfg.Ledger.CollateralCreditRatio))
}

func TestLoadWithEnv_RejectsMalformedDecimal(t *testing.T) {
	dir := writeConfig(t, `
ledger:
  seedBalance: "ten"
`)
	t.Chdir(dir)

	_, err := LoadWithEnv[ledgerOnly]("ledgertest")
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "fills distribution defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, constants.StorageDriverMemory, cfg.Storage.Driver)
				assert.Equal(t, constants.ResidualPolicyPlatform, cfg.Distribution.ResidualPolicy)
				assert.Equal(t, defaultWorkers, cfg.Distribution.Workers)
				assert.Equal(t, defaultLockTTL, cfg.Distribution.LockTTL)
				assert.Equal(t, defaultSchedulerDay, cfg.Distribution.Scheduler.DayOfMonth)
			},
		},
		{
			name:    "rejects ratio above one",
			mutate:  func(cfg *Config) { cfg.Ledger.CollateralCreditRatio = decimal.RequireFromString("1.2") },
			wantErr: "collateralCreditRatio",
		},
		{
			name:    "rejects negative seed balance",
			mutate:  func(cfg *Config) { cfg.Ledger.SeedBalance = decimal.NewFromInt(-1) },
			wantErr: "seedBalance",
		},
		{
			name:    "rejects unknown residual policy",
			mutate:  func(cfg *Config) { cfg.Distribution.ResidualPolicy = "split" },
			wantErr: "residualPolicy",
		},
		{
			name:    "rejects day past the 28th",
			mutate:  func(cfg *Config) { cfg.Distribution.Scheduler.DayOfMonth = 31 },
			wantErr: "dayOfMonth",
		},
		{
			name:    "postgres driver needs postgres section",
			mutate:  func(cfg *Config) { cfg.Storage.Driver = constants.StorageDriverPostgres },
			wantErr: "postgres configuration is required",
		},
		{
			name:    "async distribution needs a publisher",
			mutate:  func(cfg *Config) { cfg.Distribution.Async = true },
			wantErr: "distribution.async requires a pubsub provider",
		},
		{
			name: "async distribution with empty provider",
			mutate: func(cfg *Config) {
				cfg.Distribution.Async = true
				cfg.PubSub = &PubSubConfig{}
			},
			wantErr: "distribution.async requires a pubsub provider",
		},
		{
			name: "async distribution over local pubsub",
			mutate: func(cfg *Config) {
				cfg.Distribution.Async = true
				cfg.PubSub = &PubSubConfig{Provider: constants.PubSubProviderLocal, LocalEndpoint: "http://localhost:8081/push"}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Distribution.Async)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Storage.Driver = constants.StorageDriverMemory
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := cfg.applyDefaults()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
