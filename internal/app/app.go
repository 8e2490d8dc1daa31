package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"chain-dashboard/internal/alerting"
	"chain-dashboard/internal/chain"
	"chain-dashboard/internal/config"
	"chain-dashboard/internal/fetcher"
	"chain-dashboard/internal/render"
	"chain-dashboard/internal/scheduler"
	"chain-dashboard/internal/series"
	"chain-dashboard/internal/service"
	"chain-dashboard/internal/telemetry"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newProvider() *fetcher.ETHProvider {
	return fetcher.NewProvider(fetcher.ProviderOptions{
		RPCURL:  a.Config.Ethereum.RPCURL,
		Timeout: a.Config.Ethereum.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) trackedToken() *common.Address {
	if !a.Config.TrackToken() {
		return nil
	}
	token := a.Config.Token()
	return &token
}

// newService wires the refresh pipeline against provider. recorder may be nil.
func (a *App) newService(provider chain.Provider, sched *scheduler.Scheduler, publishers []service.Publisher, recorder *telemetry.Recorder) *service.Service {
	volumeOpts := series.VolumeOptions{Concurrency: a.Config.Window.Size}
	if recorder != nil {
		volumeOpts.OnAnomaly = recorder.ObserveAnomaly
		publishers = append(publishers, recorder)
	}
	volume := series.NewVolumeAggregator(provider, volumeOpts, a.Logger)

	opts := service.Options{
		WindowSize: a.Config.Window.Size,
		Token:      a.trackedToken(),
	}
	return service.New(opts, sched, provider, volume, publishers, a.newNotifier(), a.Logger)
}

func (a *App) publishers(outputDir string, png, csv bool) []service.Publisher {
	var pubs []service.Publisher
	if png || csv {
		pubs = append(pubs, render.NewChartWriter(render.ChartOptions{
			Dir:    outputDir,
			Width:  a.Config.Render.Width,
			Height: a.Config.Render.Height,
			PNG:    png,
			CSV:    csv,
		}, a.Logger))
	}
	if a.Config.Render.Table {
		pubs = append(pubs, render.NewTableWriter(a.Out))
	}
	return pubs
}

// Run executes the long-running dashboard refresh loop. SIGHUP forces an
// immediate refresh.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !a.Config.TrackToken() {
		a.Logger.Warn().Msg("ethereum.token_address not configured; transfer volume disabled")
	}

	provider := a.newProvider()
	defer provider.Close()

	sched := scheduler.New(scheduler.Options{
		Interval:       a.Config.Refresh.Interval,
		StartupDelay:   a.Config.Refresh.StartupDelay,
		RunImmediately: a.Config.Refresh.RunImmediately,
	}, a.Logger)

	var recorder *telemetry.Recorder
	if a.Config.Metrics.Listen != "" {
		recorder = telemetry.NewRecorder(a.Config.Metrics.Namespace)
		go func() {
			if err := recorder.Serve(ctx, a.Config.Metrics.Listen, a.Logger); err != nil {
				a.Logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	pubs := a.publishers(a.Config.Render.OutputDir, a.Config.Render.PNG, a.Config.Render.CSV)
	svc := a.newService(provider, sched, pubs, recorder)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				a.Logger.Info().Msg("manual refresh requested")
				sched.Trigger()
			}
		}
	}()

	a.Logger.Info().
		Int("window", a.Config.Window.Size).
		Dur("interval", a.Config.Refresh.Interval).
		Msg("starting dashboard")
	err := svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("dashboard terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard stopped")
	return nil
}

// SnapshotOptions configure a one-shot refresh.
type SnapshotOptions struct {
	OutputDir string
	PNG       bool
	CSV       bool
}
