package retryables

import (
	"math/big"

	"github.com/omni/retryables-monitor/contract/arbabi"
)

// MessageNumbers returns the sequence numbers of all inbox messages delivered in the receipt, in log order.
func (r *Receipt) MessageNumbers() []*big.Int {
	res := make([]*big.Int, 0)
	for _, log := range r.logs {
		if len(log.Topics) < 2 {
			continue
		}
		switch log.Topics[0] {
		case arbabi.InboxMessageDeliveredEventSignature, arbabi.InboxMessageDeliveredFromOriginEventSignature:
			res = append(res, new(big.Int).SetBytes(log.Topics[1].Bytes()))
		}
	}
	return res
}
