package contract

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertData extracts the revert payload carried by a JSON-RPC error, if any.
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	switch data := dataErr.ErrorData().(type) {
	case string:
		res, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil, false
		}
		return res, true
	case []byte:
		return data, true
	default:
		return nil, false
	}
}

func IsRevert(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RevertData(err); ok {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// HasErrorSelector reports whether err is a revert with the given custom error selector.
func HasErrorSelector(err error, selector []byte) bool {
	data, ok := RevertData(err)
	return ok && len(data) >= 4 && bytes.Equal(data[:4], selector)
}
