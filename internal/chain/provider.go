package chain

import "context"

// Provider is the upstream RPC collaborator consumed by the fetch pipeline.
type Provider interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, height uint64) (Block, error)
	Logs(ctx context.Context, filter LogFilter) ([]TransferLog, error)
}
