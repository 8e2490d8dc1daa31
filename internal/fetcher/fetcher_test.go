package fetcher

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"chain-dashboard/internal/chain"
)

type fakeProvider struct {
	mu      sync.Mutex
	head    uint64
	headErr error
	failAt  map[uint64]error
	calls   []uint64
}

func (f *fakeProvider) BlockNumber(ctx context.Context) (uint64, error) {
	if f.headErr != nil {
		return 0, f.headErr
	}
	return f.head, nil
}

func (f *fakeProvider) BlockByNumber(ctx context.Context, height uint64) (chain.Block, error) {
	f.mu.Lock()
	f.calls = append(f.calls, height)
	f.mu.Unlock()

	if err, ok := f.failAt[height]; ok {
		return chain.Block{}, err
	}
	return chain.Block{
		Number:        height,
		BaseFeePerGas: strconv.FormatUint(height*1_000_000_000, 10),
		GasUsed:       "5000000",
		GasLimit:      "10000000",
	}, nil
}

func (f *fakeProvider) Logs(ctx context.Context, filter chain.LogFilter) ([]chain.TransferLog, error) {
	return nil, nil
}

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchLatestBlocksAscending(t *testing.T) {
	provider := &fakeProvider{head: 100}

	blocks, err := FetchLatestBlocks(context.Background(), provider, 10)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(blocks) != 10 {
		t.Fatalf("expected 10 blocks, got %d", len(blocks))
	}
	for i, block := range blocks {
		want := uint64(91 + i)
		if block.Number != want {
			t.Fatalf("block %d: expected height %d, got %d", i, want, block.Number)
		}
	}
	if len(provider.calls) != 10 {
		t.Fatalf("expected one query per block, got %d", len(provider.calls))
	}
}

func TestFetchLatestBlocksDefaultSize(t *testing.T) {
	blocks, err := FetchLatestBlocks(context.Background(), &fakeProvider{head: 50}, 0)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(blocks) != DefaultWindowSize {
		t.Fatalf("expected default window size, got %d", len(blocks))
	}
}

func TestFetchLatestBlocksShortChain(t *testing.T) {
	blocks, err := FetchLatestBlocks(context.Background(), &fakeProvider{head: 3}, 10)
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected blocks 0..3, got %d", len(blocks))
	}
	if blocks[0].Number != 0 || blocks[3].Number != 3 {
		t.Fatalf("unexpected window bounds %d..%d", blocks[0].Number, blocks[3].Number)
	}
}

func TestFetchLatestBlocksHeadFailure(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	_, err := FetchLatestBlocks(context.Background(), &fakeProvider{headErr: cause}, 10)
	if !errors.Is(err, chain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be preserved, got %v", err)
	}
}

func TestFetchLatestBlocksBlockFailureIsAtomic(t *testing.T) {
	provider := &fakeProvider{head: 100, failAt: map[uint64]error{95: errors.New("not found")}}

	blocks, err := FetchLatestBlocks(context.Background(), provider, 10)
	if !errors.Is(err, chain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if blocks != nil {
		t.Fatalf("no partial window should be returned, got %d blocks", len(blocks))
	}
}

func TestFetchLatestBlocksRequeriesEveryCall(t *testing.T) {
	provider := &fakeProvider{head: 20}
	ctx := context.Background()

	first, err := FetchLatestBlocks(ctx, provider, 5)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	provider.head = 21
	second, err := FetchLatestBlocks(ctx, provider, 5)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if first[4].Number != 20 || second[4].Number != 21 {
		t.Fatalf("each call should observe the current head")
	}
	if len(provider.calls) != 10 {
		t.Fatalf("expected 10 block queries across two calls, got %d", len(provider.calls))
	}
}
