package series

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"chain-dashboard/internal/chain"
)

var transferValueArgs abi.Arguments

func init() {
	uint256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic("failed to build uint256 ABI type: " + err.Error())
	}
	transferValueArgs = abi.Arguments{{Name: "value", Type: uint256}}
}

// VolumeOptions tune the transfer volume aggregator.
type VolumeOptions struct {
	// OnAnomaly, when set, receives every log that failed to decode. It may be
	// called from several goroutines at once.
	OnAnomaly func(chain.LogDecodeAnomaly)
	// Concurrency bounds per-block log queries. Zero means one task per block.
	Concurrency int
}

// VolumeAggregator sums ERC-20 Transfer values per block.
type VolumeAggregator struct {
	provider chain.Provider
	opts     VolumeOptions
	logger   zerolog.Logger
}

// NewVolumeAggregator constructs an aggregator reading logs from provider.
func NewVolumeAggregator(provider chain.Provider, opts VolumeOptions, logger zerolog.Logger) *VolumeAggregator {
	return &VolumeAggregator{
		provider: provider,
		opts:     opts,
		logger:   logger.With().Str("component", "volume_aggregator").Logger(),
	}
}

// GetERC20TransferVolume returns the summed Transfer value emitted by token in
// block, rounded to two decimals. Undecodable logs contribute zero; a failed
// log query fails the call with chain.ErrVolumeFetchFailed.
func (a *VolumeAggregator) GetERC20TransferVolume(ctx context.Context, block chain.Block, token common.Address) (float64, error) {
	logs, err := a.provider.Logs(ctx, chain.LogFilter{
		FromBlock: block.Number,
		ToBlock:   block.Number,
		Address:   token,
		Topics:    []common.Hash{chain.TransferTopic},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: block %d: %w", chain.ErrVolumeFetchFailed, block.Number, err)
	}

	total := decimal.Zero
	for _, l := range logs {
		amount, err := decodeTransferValue(l.Data)
		if err != nil {
			a.reportAnomaly(chain.LogDecodeAnomaly{
				BlockNumber: block.Number,
				TxHash:      l.TxHash,
				LogIndex:    l.Index,
				Err:         err,
			})
			continue
		}
		total = total.Add(decimal.NewFromBigInt(amount, 0))
	}

	return total.Round(2).InexactFloat64(), nil
}

// DeriveVolumeSeries computes the transfer volume of every block concurrently.
// Points keep the order of blocks. Any failed block fails the whole series.
func (a *VolumeAggregator) DeriveVolumeSeries(ctx context.Context, blocks []chain.Block, token common.Address) ([]chain.MetricPoint, error) {
	points := make([]chain.MetricPoint, len(blocks))

	limit := a.opts.Concurrency
	if limit <= 0 {
		limit = len(blocks)
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, block := range blocks {
		g.Go(func() error {
			volume, err := a.GetERC20TransferVolume(gctx, block, token)
			if err != nil {
				return err
			}
			points[i] = chain.MetricPoint{BlockNumber: block.Number, Value: volume}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (a *VolumeAggregator) reportAnomaly(anomaly chain.LogDecodeAnomaly) {
	a.logger.Warn().
		Err(anomaly.Err).
		Uint64("block", anomaly.BlockNumber).
		Str("tx", anomaly.TxHash.Hex()).
		Uint("log_index", anomaly.LogIndex).
		Msg("failed to decode transfer log")
	if a.opts.OnAnomaly != nil {
		a.opts.OnAnomaly(anomaly)
	}
}

func decodeTransferValue(data []byte) (*big.Int, error) {
	values, err := transferValueArgs.Unpack(data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, errors.New("unexpected transfer payload")
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("transfer value is not a uint256")
	}
	return amount, nil
}
