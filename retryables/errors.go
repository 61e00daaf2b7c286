package retryables

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNoMessageFound            = errors.New("no message found")
	ErrIndexOutOfRange           = errors.New("message index out of range")
	ErrAmbiguousMessageCount     = errors.New("ambiguous message count")
	ErrInvalidStateForRedemption = errors.New("invalid state for redemption")
	ErrRedemptionFailed          = errors.New("redemption failed")
	ErrLogDecode                 = errors.New("can't decode log")
)

type NoMessageFoundError struct {
	TxHash common.Hash
}

func (e *NoMessageFoundError) Error() string {
	return fmt.Sprintf("no retryable messages in transaction %s", e.TxHash)
}

func (e *NoMessageFoundError) Unwrap() error { return ErrNoMessageFound }

type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("message index %d is out of range, transaction has %d messages", e.Index, e.Count)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

type AmbiguousMessageCountError struct {
	Count int
}

func (e *AmbiguousMessageCountError) Error() string {
	return fmt.Sprintf("transaction has %d messages, an explicit index is required", e.Count)
}

func (e *AmbiguousMessageCountError) Unwrap() error { return ErrAmbiguousMessageCount }

type InvalidStateForRedemptionError struct {
	Status Status
}

func (e *InvalidStateForRedemptionError) Error() string {
	return fmt.Sprintf("can't redeem message in status %s", e.Status)
}

func (e *InvalidStateForRedemptionError) Unwrap() error { return ErrInvalidStateForRedemption }

// RedemptionFailedError is returned when a redeem transaction was rejected or reverted on L2.
type RedemptionFailedError struct {
	UserTxHash common.Hash
	// TxHash is empty if the transaction was rejected before submission.
	TxHash common.Hash
	Err    error
}

func (e *RedemptionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("redemption of %s failed: %v", e.UserTxHash, e.Err)
	}
	return fmt.Sprintf("redemption of %s failed in transaction %s", e.UserTxHash, e.TxHash)
}

func (e *RedemptionFailedError) Is(target error) bool { return target == ErrRedemptionFailed }

func (e *RedemptionFailedError) Unwrap() error { return e.Err }

type LogDecodeError struct {
	LogIndex uint
	Err      error
}

func (e *LogDecodeError) Error() string {
	return fmt.Sprintf("can't decode log %d: %v", e.LogIndex, e.Err)
}

func (e *LogDecodeError) Is(target error) bool { return target == ErrLogDecode }

func (e *LogDecodeError) Unwrap() error { return e.Err }
