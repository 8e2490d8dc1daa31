package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"chain-dashboard/internal/alerting"
	"chain-dashboard/internal/chain"
	"chain-dashboard/internal/scheduler"
)

type stubProvider struct {
	head    uint64
	headErr error
	gasUsed string
}

func (p *stubProvider) BlockNumber(ctx context.Context) (uint64, error) {
	return p.head, p.headErr
}

func (p *stubProvider) BlockByNumber(ctx context.Context, height uint64) (chain.Block, error) {
	gasUsed := p.gasUsed
	if gasUsed == "" {
		gasUsed = "5000000"
	}
	return chain.Block{
		Number:        height,
		BaseFeePerGas: strconv.FormatUint(height, 10) + "000000000",
		GasUsed:       gasUsed,
		GasLimit:      "10000000",
	}, nil
}

func (p *stubProvider) Logs(ctx context.Context, filter chain.LogFilter) ([]chain.TransferLog, error) {
	return nil, nil
}

type stubVolume struct {
	value float64
	err   error
	calls int
}

func (v *stubVolume) DeriveVolumeSeries(ctx context.Context, blocks []chain.Block, token common.Address) ([]chain.MetricPoint, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	points := make([]chain.MetricPoint, len(blocks))
	for i, b := range blocks {
		points[i] = chain.MetricPoint{BlockNumber: b.Number, Value: v.value}
	}
	return points, nil
}

type capturePublisher struct {
	snaps []chain.Snapshot
}

func (c *capturePublisher) Publish(ctx context.Context, snap chain.Snapshot) error {
	c.snaps = append(c.snaps, snap)
	return nil
}

type captureNotifier struct {
	notes []alerting.Notification
}

func (c *captureNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	c.notes = append(c.notes, note)
	return nil
}

var token = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

func newTestService(provider chain.Provider, volume VolumeSource, track bool, pub Publisher, notifier alerting.Notifier) *Service {
	opts := Options{WindowSize: 10}
	if track {
		opts.Token = &token
	}
	var pubs []Publisher
	if pub != nil {
		pubs = append(pubs, pub)
	}
	return New(opts, nil, provider, volume, pubs, notifier, zerolog.Nop())
}

func TestRefreshDerivesAlignedPanels(t *testing.T) {
	svc := newTestService(&stubProvider{head: 100}, &stubVolume{value: 12.5}, true, nil, nil)

	snap := svc.Refresh(context.Background())
	if snap.Err != nil {
		t.Fatalf("refresh should succeed: %v", snap.Err)
	}
	if len(snap.Blocks) != 10 || snap.Head() != 100 {
		t.Fatalf("unexpected window: %d blocks, head %d", len(snap.Blocks), snap.Head())
	}
	for _, name := range chain.AllSeries {
		panel := snap.Panel(name)
		if panel.State != chain.StateReady {
			t.Fatalf("%s should be ready, got %s (%v)", name, panel.State, panel.Err)
		}
		if len(panel.Points) != len(snap.Blocks) {
			t.Fatalf("%s has %d points for %d blocks", name, len(panel.Points), len(snap.Blocks))
		}
		for i, p := range panel.Points {
			if p.BlockNumber != snap.Blocks[i].Number {
				t.Fatalf("%s point %d misaligned", name, i)
			}
		}
	}
	if got := snap.Panel(chain.SeriesBaseFee).Points[9].Value; got != 100 {
		t.Fatalf("expected base fee 100 Gwei, got %v", got)
	}
	if got := snap.Panel(chain.SeriesGasUsage).Points[0].Value; got != 50 {
		t.Fatalf("expected 50%% usage, got %v", got)
	}
}

func TestRefreshWindowFailure(t *testing.T) {
	svc := newTestService(&stubProvider{headErr: errors.New("connection refused")}, &stubVolume{}, true, nil, nil)

	snap := svc.Refresh(context.Background())
	if !errors.Is(snap.Err, chain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", snap.Err)
	}
	for _, name := range chain.AllSeries {
		if snap.Panel(name).State != chain.StateFailed {
			t.Fatalf("%s should be failed when the window is unavailable", name)
		}
	}
}

func TestRefreshIsolatesPanelFailures(t *testing.T) {
	volume := &stubVolume{err: chain.ErrVolumeFetchFailed}
	svc := newTestService(&stubProvider{head: 50, gasUsed: "bogus"}, volume, true, nil, nil)

	snap := svc.Refresh(context.Background())
	if snap.Err != nil {
		t.Fatalf("window should load: %v", snap.Err)
	}
	if snap.Panel(chain.SeriesBaseFee).State != chain.StateReady {
		t.Fatal("base fee panel should be unaffected")
	}
	if p := snap.Panel(chain.SeriesGasUsage); p.State != chain.StateFailed || !errors.Is(p.Err, chain.ErrMalformedBlockData) {
		t.Fatalf("gas usage should fail with malformed data, got %s %v", p.State, p.Err)
	}
	if p := snap.Panel(chain.SeriesVolume); p.State != chain.StateFailed || p.Points != nil {
		t.Fatalf("volume should fail without substituted points, got %s %v", p.State, p.Points)
	}
}

func TestRefreshVolumeEmptyStates(t *testing.T) {
	volume := &stubVolume{value: 0}
	svc := newTestService(&stubProvider{head: 50}, volume, true, nil, nil)
	if p := svc.Refresh(context.Background()).Panel(chain.SeriesVolume); p.State != chain.StateEmpty || len(p.Points) != 10 {
		t.Fatalf("all-zero volume should be empty but keep points, got %s with %d points", p.State, len(p.Points))
	}

	untracked := &stubVolume{value: 5}
	svc = newTestService(&stubProvider{head: 50}, untracked, false, nil, nil)
	if p := svc.Refresh(context.Background()).Panel(chain.SeriesVolume); p.State != chain.StateEmpty {
		t.Fatalf("untracked token should leave volume empty, got %s", p.State)
	}
	if untracked.calls != 0 {
		t.Fatal("no log queries should run without a token")
	}
}

func TestTickPublishesAndNotifiesTransitions(t *testing.T) {
	provider := &stubProvider{head: 10}
	pub := &capturePublisher{}
	notifier := &captureNotifier{}
	svc := newTestService(provider, &stubVolume{value: 1}, true, pub, notifier)
	ctx := context.Background()
	at := time.Now()

	if err := svc.Tick(ctx, at, scheduler.ReasonStartup); err != nil {
		t.Fatalf("healthy tick should succeed: %v", err)
	}

	provider.headErr = errors.New("503")
	for i := 0; i < 3; i++ {
		if err := svc.Tick(ctx, at, scheduler.ReasonInterval); !errors.Is(err, chain.ErrProviderUnavailable) {
			t.Fatalf("failing tick should surface the error, got %v", err)
		}
	}

	provider.headErr = nil
	if err := svc.Tick(ctx, at, scheduler.ReasonManual); err != nil {
		t.Fatalf("recovered tick should succeed: %v", err)
	}

	if len(pub.snaps) != 5 {
		t.Fatalf("every tick should publish, got %d", len(pub.snaps))
	}
	if len(notifier.notes) != 2 {
		t.Fatalf("expected failure + recovery notifications, got %d", len(notifier.notes))
	}
	if notifier.notes[0].Kind != alerting.KindFailure || len(notifier.notes[0].Failures) != 1 {
		t.Fatalf("unexpected failure notification %+v", notifier.notes[0])
	}
	if notifier.notes[1].Kind != alerting.KindRecovery || notifier.notes[1].Streak != 3 {
		t.Fatalf("unexpected recovery notification %+v", notifier.notes[1])
	}
}

func TestRunRequiresScheduler(t *testing.T) {
	svc := newTestService(&stubProvider{}, nil, false, nil, nil)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("run without scheduler should fail")
	}
}
