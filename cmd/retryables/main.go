package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/omni/retryables-monitor/config"
	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/retryables"
)

var (
	cfgPath  string
	rollupID string
	txHash   string
	index    int
)

var ErrInvalidArgs = errors.New("invalid arguments")

var rootCmd = &cobra.Command{
	Use:          "retryables",
	Short:        "Inspect and redeem Arbitrum retryable tickets created by L1 transactions",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&rollupID, "rollup", "", "rollup id, can be omitted when a single rollup is active")
	rootCmd.PersistentFlags().StringVar(&txHash, "tx", "", "L1 transaction hash")
	rootCmd.PersistentFlags().IntVar(&index, "index", -1, "message index in the transaction, required for transactions with several messages")
	_ = rootCmd.MarkPersistentFlagRequired("tx")
	rootCmd.AddCommand(statusCmd, redeemCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadRollup() (*config.RollupConfig, error) {
	cfg, err := config.ReadConfigFromFile(cfgPath)
	if err != nil {
		return nil, err
	}
	rollups := cfg.ActiveRollups()
	if rollupID == "" && len(rollups) == 1 {
		for _, rollup := range rollups {
			return rollup, nil
		}
	}
	rollup, ok := rollups[rollupID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown rollup %q", ErrInvalidArgs, rollupID)
	}
	return rollup, nil
}

func messageIndex() *int {
	if index < 0 {
		return nil
	}
	return &index
}

func fetchReceipt(ctx context.Context, rollup *config.RollupConfig) (*retryables.Receipt, error) {
	if !isHash(txHash) {
		return nil, fmt.Errorf("%w: %q is not a transaction hash", ErrInvalidArgs, txHash)
	}
	chain := rollup.L1.Chain
	l1, err := ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID, chain.RPC.RPS)
	if err != nil {
		return nil, fmt.Errorf("can't dial l1 rpc client: %w", err)
	}
	raw, err := l1.TransactionReceiptByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("can't get receipt of %s: %w", txHash, err)
	}
	return retryables.NewReceipt(raw), nil
}

func isHash(s string) bool {
	b, err := hexutil.Decode(s)
	return err == nil && len(b) == common.HashLength
}
