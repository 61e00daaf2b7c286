package main

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/omni/retryables-monitor/ethclient"
	"github.com/omni/retryables-monitor/retryables"
)

type messageStatus struct {
	Index          int               `json:"index"`
	SequenceNumber string            `json:"sequence_number"`
	CreationID     common.Hash       `json:"creation_id"`
	UserTxHash     common.Hash       `json:"user_tx_hash"`
	AutoRedeemID   common.Hash       `json:"auto_redeem_id"`
	Status         retryables.Status `json:"status"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print statuses of the retryable tickets created by an L1 transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		rollup, err := loadRollup()
		if err != nil {
			return err
		}
		receipt, err := fetchReceipt(ctx, rollup)
		if err != nil {
			return err
		}
		chain := rollup.L2.Chain
		l2, err := ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID, chain.RPC.RPS)
		if err != nil {
			return fmt.Errorf("can't dial l2 rpc client: %w", err)
		}
		opt := retryables.WithRetryableTxAddress(rollup.L2.RetryableTxAddress)

		var msgs []*retryables.Message
		first := 0
		if i := messageIndex(); i != nil {
			msg, err2 := receipt.Message(ctx, l2, i, opt)
			if err2 != nil {
				return err2
			}
			msgs, first = []*retryables.Message{msg}, *i
		} else if msgs, err = receipt.Messages(ctx, l2, opt); err != nil {
			return err
		}

		res := make([]*messageStatus, 0, len(msgs))
		for i, msg := range msgs {
			status, err2 := msg.Status(ctx)
			if err2 != nil {
				return err2
			}
			res = append(res, &messageStatus{
				Index:          first + i,
				SequenceNumber: msg.SequenceNumber().String(),
				CreationID:     msg.CreationID(),
				UserTxHash:     msg.UserTxHash(),
				AutoRedeemID:   msg.AutoRedeemID(),
				Status:         status,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}
