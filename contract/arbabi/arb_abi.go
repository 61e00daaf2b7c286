package arbabi

//nolint:golint
import (
	_ "embed"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/retryables-monitor/contract/abi"
)

//go:embed inbox.json
var inboxJSONABI string

//go:embed gateway.json
var gatewayJSONABI string

//go:embed arb_retryable_tx.json
var arbRetryableTxJSONABI string

const (
	InboxMessageDelivered           = "event InboxMessageDelivered(uint256 indexed messageNum, bytes data)"
	InboxMessageDeliveredFromOrigin = "event InboxMessageDeliveredFromOrigin(uint256 indexed messageNum)"

	DepositInitiated = "event DepositInitiated(address l1Token, address indexed _from, address indexed _to, uint256 indexed _sequenceNumber, uint256 _amount)"
)

var (
	InboxABI          = abi.MustReadABI(inboxJSONABI)
	GatewayABI        = abi.MustReadABI(gatewayJSONABI)
	ArbRetryableTxABI = abi.MustReadABI(arbRetryableTxJSONABI)

	InboxMessageDeliveredEventSignature           = InboxABI.Events["InboxMessageDelivered"].ID
	InboxMessageDeliveredFromOriginEventSignature = InboxABI.Events["InboxMessageDeliveredFromOrigin"].ID
	DepositInitiatedEventSignature                = GatewayABI.Events["DepositInitiated"].ID

	NoTicketWithIDErrorSelector = ArbRetryableTxABI.Errors["NoTicketWithID"].ID.Bytes()[:4]

	// DepositEthSelector is the 4-byte selector of Inbox.depositEth(uint256).
	DepositEthSelector = []byte{0x0f, 0x4d, 0x14, 0xe9}

	ArbRetryableTxAddress = common.HexToAddress("0x000000000000000000000000000000000000006E")
)
