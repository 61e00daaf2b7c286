package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/retryables"
	"github.com/omni/retryables-monitor/utils"
)

var redeemKey string

var redeemCmd = &cobra.Command{
	Use:   "redeem",
	Short: "Redeem a retryable ticket that is waiting on L2",
	Long:  "Redeem a retryable ticket that is waiting on L2. The key can also be passed in the RETRYABLES_REDEEMER_KEY env variable.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if redeemKey == "" {
			redeemKey = os.Getenv("RETRYABLES_REDEEMER_KEY")
		}
		if redeemKey == "" {
			return fmt.Errorf("%w: redeemer key is not specified", ErrInvalidArgs)
		}
		key, err := utils.ParsePrivateKey(redeemKey)
		if err != nil {
			return err
		}
		rollup, err := loadRollup()
		if err != nil {
			return err
		}
		receipt, err := fetchReceipt(ctx, rollup)
		if err != nil {
			return err
		}
		chain := rollup.L2.Chain
		l2, err := ethclient.NewSigningClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID, chain.RPC.RPS, key)
		if err != nil {
			return fmt.Errorf("can't dial l2 signing rpc client: %w", err)
		}

		msg, err := receipt.RedeemableMessage(ctx, l2, messageIndex(), retryables.WithRetryableTxAddress(rollup.L2.RetryableTxAddress))
		if err != nil {
			return err
		}
		redeemReceipt, err := msg.Redeem(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "redeemed ticket %s from %s in transaction %s\n",
			msg.UserTxHash(), l2.Address(), redeemReceipt.TransactionHash())
		return nil
	},
}

func init() {
	redeemCmd.Flags().StringVar(&redeemKey, "key", "", "hex encoded private key of the L2 account paying for the redeem")
}
