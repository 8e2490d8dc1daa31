package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reason explains why a tick fired.
type Reason string

const (
	ReasonStartup  Reason = "startup"
	ReasonInterval Reason = "interval"
	ReasonManual   Reason = "manual"
)

// TickFunc is invoked on every refresh.
type TickFunc func(ctx context.Context, at time.Time, reason Reason) error

// Options tune scheduler behaviour.
type Options struct {
	Interval       time.Duration
	StartupDelay   time.Duration
	RunImmediately bool
}

// Scheduler drives periodic refreshes and accepts on-demand triggers.
type Scheduler struct {
	opts    Options
	trigger chan struct{}
	logger  zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:    opts,
		trigger: make(chan struct{}, 1),
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
}

// Trigger requests a refresh as soon as the current one finishes. Requests
// arriving while one is already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
		s.logger.Debug().Msg("refresh already pending")
	}
}

// Run blocks, invoking tick on every interval and trigger until ctx is cancelled.
// Ticks never overlap; the interval restarts after each tick.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunImmediately {
		s.execute(ctx, tick, ReasonStartup)
	}

	timer := time.NewTimer(s.opts.Interval)
	defer timer.Stop()

	for {
		s.logger.Debug().Dur("interval", s.opts.Interval).Msg("waiting for next refresh")

		var reason Reason
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			reason = ReasonInterval
		case <-s.trigger:
			reason = ReasonManual
			timer.Stop()
		}

		s.execute(ctx, tick, reason)
		timer.Reset(s.opts.Interval)
	}
}

func (s *Scheduler) execute(ctx context.Context, tick TickFunc, reason Reason) {
	at := time.Now().UTC()
	s.logger.Info().Time("at", at).Str("reason", string(reason)).Msg("executing refresh")

	if err := tick(ctx, at, reason); err != nil {
		s.logger.Error().Err(err).Str("reason", string(reason)).Msg("refresh failed")
	}
}
