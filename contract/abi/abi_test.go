package abi_test

import (
	_ "embed"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/retryables-monitor/contract/abi"
)

//go:embed test_abi.json
var testJSONABI string

const (
	depositEvent   = "event DepositInitiated(address l1Token, address indexed from, address indexed to, uint256 indexed sequenceNumber, uint256 amount)"
	deliveredEvent = "event MessageDelivered(uint256 indexed messageNum, bytes data)"
	amountsEvent   = "event TicketAmounts(uint256 deposit, uint256 callValue)"
	rangeEvent     = "event MessageRange(uint256 indexed start, uint256 indexed end)"
)

var (
	depositTopic   = crypto.Keccak256Hash([]byte("DepositInitiated(address,address,address,uint256,uint256)"))
	deliveredTopic = crypto.Keccak256Hash([]byte("MessageDelivered(uint256,bytes)"))
	amountsTopic   = crypto.Keccak256Hash([]byte("TicketAmounts(uint256,uint256)"))
	rangeTopic     = crypto.Keccak256Hash([]byte("MessageRange(uint256,uint256)"))

	tokenAddr = common.HexToAddress("0x0a")
	aliceAddr = common.HexToAddress("0x01")
	alice     = common.BytesToHash(aliceAddr.Bytes())
	bobAddr   = common.HexToAddress("0x02")
	bob       = common.BytesToHash(bobAddr.Bytes())
)

func word(v int64) []byte {
	return common.BigToHash(big.NewInt(v)).Bytes()
}

func concat(chunks ...[]byte) []byte {
	var res []byte
	for _, chunk := range chunks {
		res = append(res, chunk...)
	}
	return res
}

func TestABI_AllEvents(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	require.Equal(t, map[string]bool{
		depositEvent:   true,
		deliveredEvent: true,
		amountsEvent:   true,
		rangeEvent:     true,
	}, testABI.AllEvents())
}

func TestABI_FindMatchingEventABI(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	event := testABI.FindMatchingEventABI([]common.Hash{depositTopic, alice, bob, common.BigToHash(big.NewInt(1))})
	require.NotNil(t, event)
	require.Equal(t, "DepositInitiated", event.Name)
	require.Nil(t, testABI.FindMatchingEventABI([]common.Hash{depositTopic, alice, bob}))
	require.Nil(t, testABI.FindMatchingEventABI([]common.Hash{deliveredTopic}))
	require.Nil(t, testABI.FindMatchingEventABI(nil))
	event = testABI.FindMatchingEventABI([]common.Hash{amountsTopic})
	require.NotNil(t, event)
	require.Equal(t, "TicketAmounts", event.Name)
}

func TestABI_ParseLog(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)
	payload := []byte{1, 2, 3}
	packed, err := testABI.Events["MessageDelivered"].Inputs.NonIndexed().Pack(payload)
	require.NoError(t, err)

	for _, test := range []struct {
		Name          string
		Log           *types.Log
		ExpectedEvent string
		ExpectedData  map[string]interface{}
		ExpectedError error
	}{
		{
			Name: "deposit with mixed arguments",
			Log: &types.Log{
				Topics: []common.Hash{depositTopic, alice, bob, common.BigToHash(big.NewInt(7))},
				Data:   concat(common.BytesToHash(tokenAddr.Bytes()).Bytes(), word(100)),
			},
			ExpectedEvent: depositEvent,
			ExpectedData: map[string]interface{}{
				"l1Token":        tokenAddr,
				"from":           aliceAddr,
				"to":             bobAddr,
				"sequenceNumber": big.NewInt(7),
				"amount":         big.NewInt(100),
			},
		},
		{
			Name:          "message with dynamic bytes",
			Log:           &types.Log{Topics: []common.Hash{deliveredTopic, common.BigToHash(big.NewInt(42))}, Data: packed},
			ExpectedEvent: deliveredEvent,
			ExpectedData:  map[string]interface{}{"messageNum": big.NewInt(42), "data": payload},
		},
		{
			Name:          "only indexed arguments",
			Log:           &types.Log{Topics: []common.Hash{rangeTopic, common.BigToHash(big.NewInt(5)), common.BigToHash(big.NewInt(9))}},
			ExpectedEvent: rangeEvent,
			ExpectedData:  map[string]interface{}{"start": big.NewInt(5), "end": big.NewInt(9)},
		},
		{
			Name:          "only data arguments",
			Log:           &types.Log{Topics: []common.Hash{amountsTopic}, Data: concat(word(3), word(4))},
			ExpectedEvent: amountsEvent,
			ExpectedData:  map[string]interface{}{"deposit": big.NewInt(3), "callValue": big.NewInt(4)},
		},
		{
			Name: "unknown topic layout is skipped",
			Log:  &types.Log{Topics: []common.Hash{depositTopic, alice}, Data: word(100)},
		},
		{
			Name:          "log without topics",
			Log:           &types.Log{Data: word(100)},
			ExpectedError: abi.ErrInvalidEvent,
		},
	} {
		t.Logf("Running sub-test %q", test.Name)

		event, data, err := testABI.ParseLog(test.Log)
		if test.ExpectedError != nil {
			require.ErrorIs(t, err, test.ExpectedError, "Failed %s", test.Name)
			continue
		}
		require.NoError(t, err, "Failed %s", test.Name)
		require.Equal(t, test.ExpectedEvent, event, "Failed %s", test.Name)
		if test.ExpectedData == nil {
			require.Empty(t, data, "Failed %s", test.Name)
		} else {
			require.Equal(t, test.ExpectedData, data, "Failed %s", test.Name)
		}
	}
}

func TestABI_ParseLog_TruncatedData(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	event, data, err := testABI.ParseLog(&types.Log{Topics: []common.Hash{amountsTopic}, Data: word(3)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "length insufficient")
	require.Empty(t, event)
	require.Empty(t, data)
}
