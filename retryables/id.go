package retryables

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// retryableFlag marks a sequence number as a retryable ticket rather than a plain L2 message.
var retryableFlag = new(big.Int).Lsh(big.NewInt(1), 255)

// CalculateRetryableCreationID returns the L2 hash of the transaction that creates the ticket
// for the inbox message seqNum on the L2 chain chainID.
func CalculateRetryableCreationID(chainID, seqNum *big.Int) common.Hash {
	flagged := new(big.Int).Or(seqNum, retryableFlag)
	return crypto.Keccak256Hash(
		common.BigToHash(chainID).Bytes(),
		common.BigToHash(flagged).Bytes(),
	)
}

// CalculateUserTxHash returns the hash of the user transaction executed when the ticket is redeemed.
func CalculateUserTxHash(creationID common.Hash) common.Hash {
	return crypto.Keccak256Hash(creationID.Bytes(), common.BigToHash(common.Big0).Bytes())
}

// CalculateAutoRedeemID returns the hash of the automatic redeem attempt made right after creation.
func CalculateAutoRedeemID(creationID common.Hash) common.Hash {
	return crypto.Keccak256Hash(creationID.Bytes(), common.BigToHash(common.Big1).Bytes())
}
