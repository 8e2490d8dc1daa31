package fetcher

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"chain-dashboard/internal/chain"
)

// ProviderOptions parameterise the JSON-RPC provider.
type ProviderOptions struct {
	RPCURL  string
	Timeout time.Duration
}

// ETHProvider reads blocks and logs from an Ethereum JSON-RPC endpoint.
type ETHProvider struct {
	opts      ProviderOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewProvider builds a provider. The connection is dialled on first use.
func NewProvider(opts ProviderOptions, logger zerolog.Logger) *ETHProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &ETHProvider{opts: opts, logger: logger.With().Str("component", "eth_provider").Logger()}
}

// BlockNumber returns the current chain head height.
func (p *ETHProvider) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

// BlockByNumber fetches the header at height and maps it into a chain.Block.
func (p *ETHProvider) BlockByNumber(ctx context.Context, height uint64) (chain.Block, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return chain.Block{}, err
	}

	header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return chain.Block{}, err
	}
	return blockFromHeader(header), nil
}

// Logs runs eth_getLogs for filter.
func (p *ETHProvider) Logs(ctx context.Context, filter chain.LogFilter) ([]chain.TransferLog, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := client.FilterLogs(ctx, filterQuery(filter))
	if err != nil {
		return nil, err
	}

	logs := make([]chain.TransferLog, 0, len(raw))
	for _, l := range raw {
		if l.Removed {
			p.logger.Debug().Uint64("block", l.BlockNumber).Str("tx", l.TxHash.Hex()).Msg("skipping removed log")
			continue
		}
		logs = append(logs, transferLogFromLog(l))
	}
	return logs, nil
}

// Close releases the underlying RPC connection.
func (p *ETHProvider) Close() {
	p.clientMux.Lock()
	defer p.clientMux.Unlock()

	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

func (p *ETHProvider) getClient(ctx context.Context) (*ethclient.Client, error) {
	if p.opts.RPCURL == "" {
		return nil, errors.New("ethereum rpc url not configured")
	}

	p.clientMux.Lock()
	defer p.clientMux.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	client, err := ethclient.DialContext(ctx, p.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

func filterQuery(filter chain.LogFilter) ethereum.FilterQuery {
	topics := make([][]common.Hash, len(filter.Topics))
	for i, topic := range filter.Topics {
		topics[i] = []common.Hash{topic}
	}
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(filter.FromBlock),
		ToBlock:   new(big.Int).SetUint64(filter.ToBlock),
		Addresses: []common.Address{filter.Address},
		Topics:    topics,
	}
}

func blockFromHeader(header *types.Header) chain.Block {
	block := chain.Block{
		Number:   header.Number.Uint64(),
		GasUsed:  new(big.Int).SetUint64(header.GasUsed).String(),
		GasLimit: new(big.Int).SetUint64(header.GasLimit).String(),
	}
	// Pre-London headers carry no base fee; derivation reports them as malformed.
	if header.BaseFee != nil {
		block.BaseFeePerGas = header.BaseFee.String()
	}
	return block
}

func transferLogFromLog(l types.Log) chain.TransferLog {
	return chain.TransferLog{
		BlockNumber: l.BlockNumber,
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		TxHash:      l.TxHash,
		Index:       l.Index,
	}
}

var _ chain.Provider = (*ETHProvider)(nil)
