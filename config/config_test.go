package config_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/config"
)

const testCfg = `
chains:
  mainnet:
    rpc:
      host: https://mainnet.infura.io/v3/${INFURA_PROJECT_KEY}
      timeout: 30s
      rps: 10
    chain_id: 1
    block_time: 12s
    block_index_interval: 60s
  arbitrum:
    rpc:
      host: https://arb1.arbitrum.io/rpc
      rps: 20
    chain_id: 42161
    block_time: 1s
rollups:
  arb1:
    l1:
      chain: mainnet
      inbox_address: 0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f
      gateway_addresses:
        - 0xa3A7B6F88361F48403514059F1F16C8E78d60EeC
      start_block: 12525700
      required_block_confirmations: 12
      max_block_range_size: 2000
    l2:
      chain: arbitrum
      status_poll_interval: 15s
    alerts:
      unredeemed_tickets:
        threshold: 12h
  arb1-no-alerts:
    l1:
      chain: mainnet
      inbox_address: 0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f
      start_block: 12525700
    l2:
      chain: arbitrum
      retryable_tx_address: 0x000000000000000000000000000000000000006F
disabled_rollups:
  - arb1-no-alerts
postgres:
  user: test_user
  password: test_password
  host: test_host
  port: 5432
  database: test_db
log_level: debug
presenter:
  host: 0.0.0.0:3333
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("INFURA_PROJECT_KEY", "12345678")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)
	mainnetChainCfg := &config.ChainConfig{
		RPC: &config.RPCConfig{
			Host:    "https://mainnet.infura.io/v3/12345678",
			Timeout: 30 * time.Second,
			RPS:     10,
		},
		ChainID:            "1",
		BlockTime:          12 * time.Second,
		BlockIndexInterval: 60 * time.Second,
	}
	arbitrumChainCfg := &config.ChainConfig{
		RPC: &config.RPCConfig{
			Host:    "https://arb1.arbitrum.io/rpc",
			Timeout: 30 * time.Second,
			RPS:     20,
		},
		ChainID:            "42161",
		BlockTime:          time.Second,
		BlockIndexInterval: 60 * time.Second,
	}
	require.Equal(t, &config.Config{
		Chains: map[string]*config.ChainConfig{
			"mainnet":  mainnetChainCfg,
			"arbitrum": arbitrumChainCfg,
		},
		Rollups: map[string]*config.RollupConfig{
			"arb1": {
				ID: "arb1",
				L1: &config.L1Config{
					ChainName:    "mainnet",
					Chain:        mainnetChainCfg,
					InboxAddress: common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f"),
					GatewayAddresses: []common.Address{
						common.HexToAddress("0xa3A7B6F88361F48403514059F1F16C8E78d60EeC"),
					},
					StartBlock:         12525700,
					BlockConfirmations: 12,
					MaxBlockRangeSize:  2000,
				},
				L2: &config.L2Config{
					ChainName:          "arbitrum",
					Chain:              arbitrumChainCfg,
					RetryableTxAddress: config.DefaultRetryableTxAddress,
					StatusPollInterval: 15 * time.Second,
				},
				Alerts: map[string]*config.AlertConfig{
					"unredeemed_tickets": {
						Interval:  5 * time.Minute,
						Timeout:   30 * time.Second,
						Threshold: 12 * time.Hour,
					},
				},
			},
			"arb1-no-alerts": {
				ID: "arb1-no-alerts",
				L1: &config.L1Config{
					ChainName:         "mainnet",
					Chain:             mainnetChainCfg,
					InboxAddress:      common.HexToAddress("0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f"),
					StartBlock:        12525700,
					MaxBlockRangeSize: 1000,
				},
				L2: &config.L2Config{
					ChainName:          "arbitrum",
					Chain:              arbitrumChainCfg,
					RetryableTxAddress: common.HexToAddress("0x000000000000000000000000000000000000006F"),
					StatusPollInterval: 30 * time.Second,
				},
			},
		},
		DisabledRollups: []string{"arb1-no-alerts"},
		DBConfig: &config.DBConfig{
			User:     "test_user",
			Password: "test_password",
			Host:     "test_host",
			Port:     5432,
			DB:       "test_db",
		},
		LogLevel: logrus.DebugLevel,
		Presenter: &config.PresenterConfig{
			Host: "0.0.0.0:3333",
		},
	}, cfg)
}

func TestConfig_ActiveRollups(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	active := cfg.ActiveRollups()
	require.Len(t, active, 1)
	require.Contains(t, active, "arb1")

	cfg.EnabledRollups = []string{"arb1-no-alerts"}
	cfg.DisabledRollups = nil
	active = cfg.ActiveRollups()
	require.Len(t, active, 1)
	require.Contains(t, active, "arb1-no-alerts")
}

func TestConfig_GetChainConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	require.Equal(t, "https://arb1.arbitrum.io/rpc", cfg.GetChainConfig("42161").RPC.Host)
	require.Nil(t, cfg.GetChainConfig("5"))
}

func TestRollupConfig_IsGateway(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)

	gateway := common.HexToAddress("0xa3A7B6F88361F48403514059F1F16C8E78d60EeC")
	other := common.HexToAddress("0x01")
	require.True(t, cfg.Rollups["arb1"].IsGateway(gateway))
	require.False(t, cfg.Rollups["arb1"].IsGateway(other))
	require.True(t, cfg.Rollups["arb1-no-alerts"].IsGateway(other))
}

func TestReadConfigWithEnv_Errors(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name string
		Cfg  string
	}{
		{
			Name: "empty config",
			Cfg:  "",
		},
		{
			Name: "several documents",
			Cfg:  "chains: {}\n---\nchains: {}\n",
		},
		{
			Name: "unknown field",
			Cfg:  "chains: {}\nunknown_field: 1\n",
		},
		{
			Name: "unknown chain",
			Cfg: `
chains:
  mainnet:
    rpc:
      host: http://localhost:8545
rollups:
  arb1:
    l1:
      chain: mainnet
      inbox_address: 0x4Dbd4fc535Ac27206064B68FfCf827b0A60BAB3f
    l2:
      chain: arbitrum
`,
		},
		{
			Name: "missing inbox",
			Cfg: `
chains:
  mainnet:
    rpc:
      host: http://localhost:8545
rollups:
  arb1:
    l1:
      chain: mainnet
    l2:
      chain: mainnet
`,
		},
		{
			Name: "missing rpc host",
			Cfg: `
chains:
  mainnet:
    chain_id: 1
`,
		},
	} {
		t.Logf("Running sub-test %q", test.Name)
		_, err := config.ReadConfigWithEnv([]byte(test.Cfg))
		require.Error(t, err, "Failed %s", test.Name)
	}
}
