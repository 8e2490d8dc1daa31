package fetcher

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"chain-dashboard/internal/chain"
)

// DefaultWindowSize is the number of blocks in a dashboard window.
const DefaultWindowSize = 10

// FetchLatestBlocks returns the newest size blocks ordered oldest to newest.
// Any failed query fails the whole window; no partial window is returned.
func FetchLatestBlocks(ctx context.Context, provider chain.Provider, size int) ([]chain.Block, error) {
	if size <= 0 {
		size = DefaultWindowSize
	}

	head, err := provider.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get block number: %w", chain.ErrProviderUnavailable, err)
	}

	// A chain younger than the window yields every block from genesis.
	if uint64(size) > head+1 {
		size = int(head + 1)
	}

	blocks := make([]chain.Block, size)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)
	for i := 0; i < size; i++ {
		height := head - uint64(i)
		slot := size - 1 - i
		g.Go(func() error {
			block, err := provider.BlockByNumber(gctx, height)
			if err != nil {
				return fmt.Errorf("%w: get block %d: %w", chain.ErrProviderUnavailable, height, err)
			}
			if block.Number != height {
				return fmt.Errorf("%w: requested block %d, provider returned %d", chain.ErrProviderUnavailable, height, block.Number)
			}
			blocks[slot] = block
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}
