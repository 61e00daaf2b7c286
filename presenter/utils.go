package presenter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/entity"
	"github.com/omni/retryables-monitor/retryables"
)

var formats = map[string]string{
	"1":        "https://etherscan.io/tx/%s",
	"5":        "https://goerli.etherscan.io/tx/%s",
	"11155111": "https://sepolia.etherscan.io/tx/%s",
	"42161":    "https://arbiscan.io/tx/%s",
	"42170":    "https://nova.arbiscan.io/tx/%s",
	"421613":   "https://goerli.arbiscan.io/tx/%s",
	"421614":   "https://sepolia.arbiscan.io/tx/%s",
}

func txLink(chainID string, txHash common.Hash) string {
	if format, ok := formats[chainID]; ok {
		return fmt.Sprintf(format, txHash)
	}
	return txHash.String()
}

func messageToInfo(index int, msg *retryables.Message, status retryables.Status) *MessageInfo {
	return &MessageInfo{
		Index:          index,
		ChainID:        msg.ChainID().String(),
		SequenceNumber: msg.SequenceNumber(),
		CreationID:     msg.CreationID(),
		UserTxHash:     msg.UserTxHash(),
		AutoRedeemID:   msg.AutoRedeemID(),
		Status:         status,
	}
}

func depositToInfo(deposit *retryables.DepositInitiated) *DepositInfo {
	return &DepositInfo{
		LogIndex:       deposit.LogIndex,
		Gateway:        deposit.Gateway,
		L1Token:        deposit.L1Token,
		From:           deposit.From,
		To:             deposit.To,
		SequenceNumber: deposit.SequenceNumber,
		Amount:         deposit.Amount.String(),
	}
}

func ticketToInfo(ticket *entity.Ticket) *TicketInfo {
	info := &TicketInfo{
		RollupID:       ticket.RollupID,
		L1ChainID:      ticket.L1ChainID,
		L1TxHash:       ticket.L1TxHash,
		L1BlockNumber:  ticket.L1BlockNumber,
		L1BlockTime:    ticket.L1BlockTime,
		L1Link:         txLink(ticket.L1ChainID, ticket.L1TxHash),
		MessageIndex:   ticket.MessageIndex,
		L2ChainID:      ticket.L2ChainID,
		SequenceNumber: ticket.SequenceNumber,
		CreationID:     ticket.CreationID,
		UserTxHash:     ticket.UserTxHash,
		Status:         ticket.Status,
		RedeemTxHash:   ticket.RedeemTxHash,
		UpdatedAt:      ticket.UpdatedAt,
	}
	if ticket.RedeemTxHash != nil {
		info.RedeemLink = txLink(ticket.L2ChainID, *ticket.RedeemTxHash)
	}
	return info
}
