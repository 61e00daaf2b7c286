package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	defaultRPCTimeout         = 30 * time.Second
	defaultBlockIndexInterval = 60 * time.Second
	defaultMaxBlockRangeSize  = 1000
	defaultStatusPollInterval = 30 * time.Second
	defaultAlertInterval      = 5 * time.Minute
	defaultAlertTimeout       = 30 * time.Second
	defaultAlertThreshold     = 24 * time.Hour
)

// DefaultRetryableTxAddress is the address of the ArbRetryableTx precompile on every Arbitrum chain.
var DefaultRetryableTxAddress = common.HexToAddress("0x000000000000000000000000000000000000006E")

var ErrInvalidConfig = errors.New("invalid config")

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

type ChainConfig struct {
	RPC                *RPCConfig    `yaml:"rpc"`
	ChainID            string        `yaml:"chain_id"`
	BlockTime          time.Duration `yaml:"block_time"`
	BlockIndexInterval time.Duration `yaml:"block_index_interval"`
	SafeLogsRequest    bool          `yaml:"safe_logs_request"`
}

type L1Config struct {
	ChainName          string           `yaml:"chain"`
	Chain              *ChainConfig     `yaml:"-"`
	InboxAddress       common.Address   `yaml:"inbox_address"`
	GatewayAddresses   []common.Address `yaml:"gateway_addresses"`
	StartBlock         uint             `yaml:"start_block"`
	BlockConfirmations uint             `yaml:"required_block_confirmations"`
	MaxBlockRangeSize  uint             `yaml:"max_block_range_size"`
}

type L2Config struct {
	ChainName          string         `yaml:"chain"`
	Chain              *ChainConfig   `yaml:"-"`
	RetryableTxAddress common.Address `yaml:"retryable_tx_address"`
	StatusPollInterval time.Duration  `yaml:"status_poll_interval"`
	RedeemerPrivateKey string         `yaml:"redeemer_private_key"`
}

type AlertConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
	Threshold time.Duration `yaml:"threshold"`
}

type RollupConfig struct {
	ID     string                  `yaml:"-"`
	L1     *L1Config               `yaml:"l1"`
	L2     *L2Config               `yaml:"l2"`
	Alerts map[string]*AlertConfig `yaml:"alerts"`
}

// IsGateway reports whether addr is one of the configured token gateways.
// With no gateways configured, every address is accepted.
func (cfg *RollupConfig) IsGateway(addr common.Address) bool {
	if len(cfg.L1.GatewayAddresses) == 0 {
		return true
	}
	for _, gateway := range cfg.L1.GatewayAddresses {
		if gateway == addr {
			return true
		}
	}
	return false
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chains          map[string]*ChainConfig  `yaml:"chains"`
	Rollups         map[string]*RollupConfig `yaml:"rollups"`
	EnabledRollups  []string                 `yaml:"enabled_rollups"`
	DisabledRollups []string                 `yaml:"disabled_rollups"`
	DBConfig        *DBConfig                `yaml:"postgres"`
	Presenter       *PresenterConfig         `yaml:"presenter"`
	LogLevel        logrus.Level             `yaml:"log_level"`
}

func (cfg *Config) GetChainConfig(chainID string) *ChainConfig {
	for _, chain := range cfg.Chains {
		if chain.ChainID == chainID {
			return chain
		}
	}
	return nil
}

// ActiveRollups applies enabled_rollups and disabled_rollups filters on top of all configured rollups.
func (cfg *Config) ActiveRollups() map[string]*RollupConfig {
	res := make(map[string]*RollupConfig, len(cfg.Rollups))
	if cfg.EnabledRollups != nil {
		for _, id := range cfg.EnabledRollups {
			if rollup, ok := cfg.Rollups[id]; ok {
				res[id] = rollup
			}
		}
	} else {
		for id, rollup := range cfg.Rollups {
			res[id] = rollup
		}
	}
	for _, id := range cfg.DisabledRollups {
		delete(res, id)
	}
	return res
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't access config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	cfg := &Config{
		LogLevel: logrus.InfoLevel,
	}
	blob = []byte(os.ExpandEnv(string(blob)))
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	for name, chain := range cfg.Chains {
		if chain.RPC == nil || chain.RPC.Host == "" {
			return fmt.Errorf("chain %s has no rpc host: %w", name, ErrInvalidConfig)
		}
		if chain.RPC.Timeout == 0 {
			chain.RPC.Timeout = defaultRPCTimeout
		}
		if chain.BlockIndexInterval == 0 {
			chain.BlockIndexInterval = defaultBlockIndexInterval
		}
	}
	for id, rollup := range cfg.Rollups {
		rollup.ID = id
		if rollup.L1 == nil || rollup.L2 == nil {
			return fmt.Errorf("rollup %s should have both l1 and l2 sections: %w", id, ErrInvalidConfig)
		}
		var ok bool
		if rollup.L1.Chain, ok = cfg.Chains[rollup.L1.ChainName]; !ok {
			return fmt.Errorf("unknown l1 chain %s in rollup %s: %w", rollup.L1.ChainName, id, ErrInvalidConfig)
		}
		if rollup.L2.Chain, ok = cfg.Chains[rollup.L2.ChainName]; !ok {
			return fmt.Errorf("unknown l2 chain %s in rollup %s: %w", rollup.L2.ChainName, id, ErrInvalidConfig)
		}
		if rollup.L1.InboxAddress == (common.Address{}) {
			return fmt.Errorf("rollup %s has no inbox address: %w", id, ErrInvalidConfig)
		}
		if rollup.L1.MaxBlockRangeSize == 0 {
			rollup.L1.MaxBlockRangeSize = defaultMaxBlockRangeSize
		}
		if rollup.L2.RetryableTxAddress == (common.Address{}) {
			rollup.L2.RetryableTxAddress = DefaultRetryableTxAddress
		}
		if rollup.L2.StatusPollInterval == 0 {
			rollup.L2.StatusPollInterval = defaultStatusPollInterval
		}
		for name, alert := range rollup.Alerts {
			if alert == nil {
				alert = new(AlertConfig)
				rollup.Alerts[name] = alert
			}
			if alert.Interval == 0 {
				alert.Interval = defaultAlertInterval
			}
			if alert.Timeout == 0 {
				alert.Timeout = defaultAlertTimeout
			}
			if alert.Threshold == 0 {
				alert.Threshold = defaultAlertThreshold
			}
		}
	}
	return nil
}
