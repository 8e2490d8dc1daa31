package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferTopic is topic0 of the ERC-20 Transfer(address,address,uint256) event.
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// Block is a finalized block as reported by the provider. Numeric fields are
// kept as the provider's decimal strings and parsed only during derivation.
type Block struct {
	Number        uint64
	BaseFeePerGas string
	GasUsed       string
	GasLimit      string
}

// TransferLog is one emitted event scoped to a single block and contract.
type TransferLog struct {
	BlockNumber uint64
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	TxHash      common.Hash
	Index       uint
}

// LogFilter narrows a log query. Each entry in Topics pins one topic position.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Address   common.Address
	Topics    []common.Hash
}

// MetricPoint is a single per-block value of a derived series.
type MetricPoint struct {
	BlockNumber uint64
	Value       float64
}
