package monitor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type BlocksRange struct {
	From uint
	To   uint
}

// TxLogs holds the fetched logs of a single L1 transaction.
type TxLogs struct {
	TxHash      common.Hash
	BlockNumber uint
	Logs        []types.Log
}

func SplitBlockRange(fromBlock uint, toBlock uint, maxSize uint) []*BlocksRange {
	batches := make([]*BlocksRange, 0, 10)
	for fromBlock <= toBlock {
		batchToBlock := fromBlock + maxSize - 1
		if batchToBlock > toBlock {
			batchToBlock = toBlock
		}
		batches = append(batches, &BlocksRange{
			From: fromBlock,
			To:   batchToBlock,
		})
		fromBlock += maxSize
	}
	return batches
}

// GroupLogsByTransaction groups logs sorted by block and log index into per-transaction batches, keeping the order.
func GroupLogsByTransaction(logs []types.Log) []*TxLogs {
	batches := make([]*TxLogs, 0, 10)
	for _, log := range logs {
		if n := len(batches); n > 0 && batches[n-1].TxHash == log.TxHash {
			batches[n-1].Logs = append(batches[n-1].Logs, log)
			continue
		}
		batches = append(batches, &TxLogs{
			TxHash:      log.TxHash,
			BlockNumber: uint(log.BlockNumber),
			Logs:        []types.Log{log},
		})
	}
	return batches
}
