package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrProviderUnavailable marks a failed head-height or block query.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedBlockData marks a block numeric field that could not be parsed.
	ErrMalformedBlockData = errors.New("malformed block data")
	// ErrVolumeFetchFailed marks a failed log query for a block.
	ErrVolumeFetchFailed = errors.New("volume fetch failed")
)

// LogDecodeAnomaly describes a transfer log whose payload could not be decoded.
// It is reported to observers and never returned to callers.
type LogDecodeAnomaly struct {
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Err         error
}

func (a LogDecodeAnomaly) Error() string {
	return fmt.Sprintf("decode transfer log %s#%d in block %d: %v", a.TxHash.Hex(), a.LogIndex, a.BlockNumber, a.Err)
}

func (a LogDecodeAnomaly) Unwrap() error {
	return a.Err
}
