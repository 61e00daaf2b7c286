package retryables

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// resolveMessages builds one message per inbox message number in the receipt.
// The L2 chain id is requested once and only if there is something to build.
func resolveMessages[M any](ctx context.Context, r *Receipt, l2 L2Reader, build func(chainID, seqNum *big.Int) M) ([]M, error) {
	numbers := r.MessageNumbers()
	res := make([]M, 0, len(numbers))
	if len(numbers) == 0 {
		return res, nil
	}
	chainID, err := l2.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get l2 chain id: %w", err)
	}
	for _, seqNum := range numbers {
		res = append(res, build(chainID, seqNum))
	}
	return res, nil
}

func pickMessage[M any](txHash common.Hash, msgs []M, index *int) (M, error) {
	var empty M
	switch {
	case len(msgs) == 0:
		return empty, &NoMessageFoundError{TxHash: txHash}
	case index != nil && (*index < 0 || *index >= len(msgs)):
		return empty, &IndexOutOfRangeError{Index: *index, Count: len(msgs)}
	case index == nil && len(msgs) > 1:
		return empty, &AmbiguousMessageCountError{Count: len(msgs)}
	case index == nil:
		return msgs[0], nil
	default:
		return msgs[*index], nil
	}
}

// Messages resolves every retryable message created by the receipt. No messages is not an error.
func (r *Receipt) Messages(ctx context.Context, l2 L2Reader, opts ...Option) ([]*Message, error) {
	return resolveMessages(ctx, r, l2, func(chainID, seqNum *big.Int) *Message {
		return NewMessage(l2, chainID, seqNum, opts...)
	})
}

// Message resolves a single message. A nil index is only accepted when the receipt has exactly one message.
func (r *Receipt) Message(ctx context.Context, l2 L2Reader, index *int, opts ...Option) (*Message, error) {
	msgs, err := r.Messages(ctx, l2, opts...)
	if err != nil {
		return nil, err
	}
	return pickMessage(r.transactionHash, msgs, index)
}

func (r *Receipt) RedeemableMessages(ctx context.Context, l2 L2Signer, opts ...Option) ([]*RedeemableMessage, error) {
	return resolveMessages(ctx, r, l2, func(chainID, seqNum *big.Int) *RedeemableMessage {
		return NewRedeemableMessage(l2, chainID, seqNum, opts...)
	})
}

func (r *Receipt) RedeemableMessage(ctx context.Context, l2 L2Signer, index *int, opts ...Option) (*RedeemableMessage, error) {
	msgs, err := r.RedeemableMessages(ctx, l2, opts...)
	if err != nil {
		return nil, err
	}
	return pickMessage(r.transactionHash, msgs, index)
}
