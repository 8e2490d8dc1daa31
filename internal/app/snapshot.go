package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chain-dashboard/internal/chain"
	"chain-dashboard/internal/scheduler"
)

// Snapshot performs a single refresh, prints it and writes the requested files.
// It fails when the block window could not be loaded.
func (a *App) Snapshot(ctx context.Context, opts SnapshotOptions) error {
	provider := a.newProvider()
	defer provider.Close()

	return a.snapshotWith(ctx, provider, opts)
}

func (a *App) snapshotWith(ctx context.Context, provider chain.Provider, opts SnapshotOptions) error {
	pubs := a.publishers(a.Config.ResolveOutputDir(opts.OutputDir), opts.PNG, opts.CSV)
	svc := a.newService(provider, nil, pubs, nil)

	err := svc.Tick(ctx, time.Now().UTC(), scheduler.ReasonManual)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("snapshot completed with errors")
	}
	return windowError(err)
}

// windowError keeps only failures that left the dashboard without a window.
func windowError(err error) error {
	if errors.Is(err, chain.ErrProviderUnavailable) {
		return fmt.Errorf("load block window: %w", err)
	}
	return nil
}
