// Package retryables correlates L1 transaction receipts with the Arbitrum retryable tickets
// they create and reads or drives the lifecycle of those tickets on L2.
//
// All functions are stateless. Messages borrow the L2 handle they were resolved with and
// perform I/O only through it, so timeouts and retries are the handle's and the caller's concern.
//
// Redeem does no local locking. Two concurrent redemptions of the same ticket both pass the
// Created check and the loser fails on chain with a RedemptionFailedError. Callers that share
// a ticket across goroutines must serialize redemptions themselves.
package retryables
