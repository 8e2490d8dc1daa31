package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"chain-dashboard/internal/alerting"
	"chain-dashboard/internal/chain"
	"chain-dashboard/internal/fetcher"
	"chain-dashboard/internal/scheduler"
	"chain-dashboard/internal/series"
)

// Publisher consumes finished snapshots (charts, console, metrics).
type Publisher interface {
	Publish(ctx context.Context, snap chain.Snapshot) error
}

// VolumeSource derives the transfer volume series for a window.
type VolumeSource interface {
	DeriveVolumeSeries(ctx context.Context, blocks []chain.Block, token common.Address) ([]chain.MetricPoint, error)
}

// Options configure the dashboard service.
type Options struct {
	WindowSize int
	// Token is the tracked ERC-20 contract. A nil Token disables the volume panel.
	Token *common.Address
}

// Service orchestrates window fetches, derivation, publishing and alerting.
type Service struct {
	opts       Options
	scheduler  *scheduler.Scheduler
	provider   chain.Provider
	volume     VolumeSource
	publishers []Publisher
	notifier   alerting.Notifier
	logger     zerolog.Logger

	failing bool
	streak  int
}

// New constructs the dashboard service.
func New(opts Options, sched *scheduler.Scheduler, provider chain.Provider, volume VolumeSource, publishers []Publisher, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	if opts.WindowSize <= 0 {
		opts.WindowSize = fetcher.DefaultWindowSize
	}
	return &Service{
		opts:       opts,
		scheduler:  sched,
		provider:   provider,
		volume:     volume,
		publishers: publishers,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
	}
}

// Run begins the refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Tick)
}

// Tick performs one refresh, publishes it and updates the alert state.
// Ticks must not run concurrently.
func (s *Service) Tick(ctx context.Context, at time.Time, reason scheduler.Reason) error {
	snap := s.Refresh(ctx)
	s.publish(ctx, snap)
	s.track(ctx, snap)
	return snapshotError(snap)
}

// Refresh fetches the current window and derives every panel. It never
// returns partial windows; a failed fetch is reported through Snapshot.Err
// with every panel in the error state.
func (s *Service) Refresh(ctx context.Context) chain.Snapshot {
	started := time.Now()
	snap := chain.Snapshot{TakenAt: started.UTC(), Panels: make(map[chain.Series]chain.Panel, len(chain.AllSeries))}

	blocks, err := fetcher.FetchLatestBlocks(ctx, s.provider, s.opts.WindowSize)
	if err != nil {
		snap.Err = err
		for _, name := range chain.AllSeries {
			snap.Panels[name] = chain.Panel{Series: name, State: chain.StateFailed, Err: err}
		}
		snap.Duration = time.Since(started)
		s.logger.Error().Err(err).Msg("failed to load block window")
		return snap
	}
	snap.Blocks = blocks

	fees, err := series.DeriveBaseFeeSeries(blocks)
	snap.Panels[chain.SeriesBaseFee] = panelFor(chain.SeriesBaseFee, fees, err)

	usage, err := series.DeriveGasUsageSeries(blocks)
	snap.Panels[chain.SeriesGasUsage] = panelFor(chain.SeriesGasUsage, usage, err)

	snap.Panels[chain.SeriesVolume] = s.volumePanel(ctx, blocks)

	snap.Duration = time.Since(started)
	s.logger.Info().
		Uint64("head", snap.Head()).
		Int("blocks", len(blocks)).
		Dur("took", snap.Duration).
		Str("base_fee", string(snap.Panel(chain.SeriesBaseFee).State)).
		Str("gas_usage", string(snap.Panel(chain.SeriesGasUsage).State)).
		Str("volume", string(snap.Panel(chain.SeriesVolume).State)).
		Msg("window refreshed")
	return snap
}

func (s *Service) volumePanel(ctx context.Context, blocks []chain.Block) chain.Panel {
	if s.opts.Token == nil || s.volume == nil {
		return chain.Panel{Series: chain.SeriesVolume, State: chain.StateEmpty}
	}

	points, err := s.volume.DeriveVolumeSeries(ctx, blocks, *s.opts.Token)
	panel := panelFor(chain.SeriesVolume, points, err)
	if panel.State == chain.StateReady && allZero(points) {
		panel.State = chain.StateEmpty
	}
	return panel
}

func (s *Service) publish(ctx context.Context, snap chain.Snapshot) {
	for _, p := range s.publishers {
		if err := p.Publish(ctx, snap); err != nil {
			s.logger.Error().Err(err).Msgf("publisher %T failed", p)
		}
	}
}

// track notifies once when refreshes start failing and once on recovery.
func (s *Service) track(ctx context.Context, snap chain.Snapshot) {
	if snap.Failed() {
		s.streak++
		if s.failing {
			return
		}
		s.failing = true
		s.notify(ctx, alerting.Notification{
			Kind:     alerting.KindFailure,
			At:       snap.TakenAt,
			Head:     snap.Head(),
			Failures: failureLines(snap),
			Streak:   s.streak,
		})
		return
	}

	if s.failing {
		s.notify(ctx, alerting.Notification{
			Kind:   alerting.KindRecovery,
			At:     snap.TakenAt,
			Head:   snap.Head(),
			Streak: s.streak,
		})
	}
	s.failing = false
	s.streak = 0
}

func (s *Service) notify(ctx context.Context, note alerting.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("kind", string(note.Kind)).Msg("failed to dispatch notification")
	}
}

func panelFor(name chain.Series, points []chain.MetricPoint, err error) chain.Panel {
	switch {
	case err != nil:
		return chain.Panel{Series: name, State: chain.StateFailed, Err: err}
	case len(points) == 0:
		return chain.Panel{Series: name, State: chain.StateEmpty}
	default:
		return chain.Panel{Series: name, State: chain.StateReady, Points: points}
	}
}

func allZero(points []chain.MetricPoint) bool {
	for _, p := range points {
		if p.Value > 0 {
			return false
		}
	}
	return true
}

func failureLines(snap chain.Snapshot) []string {
	if snap.Err != nil {
		return []string{"window: " + snap.Err.Error()}
	}
	var lines []string
	for _, name := range chain.AllSeries {
		if p := snap.Panel(name); p.State == chain.StateFailed {
			lines = append(lines, fmt.Sprintf("%s: %v", name, p.Err))
		}
	}
	return lines
}

func snapshotError(snap chain.Snapshot) error {
	if snap.Err != nil {
		return snap.Err
	}
	var errs []error
	for _, name := range chain.AllSeries {
		if p := snap.Panel(name); p.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, p.Err))
		}
	}
	return errors.Join(errs...)
}

var _ VolumeSource = (*series.VolumeAggregator)(nil)
