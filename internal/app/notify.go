package app

import (
	"context"
	"errors"
	"time"

	"chain-dashboard/internal/alerting"
)

// NotifyTest sends a synthetic failure notification through the configured channel.
func (a *App) NotifyTest(ctx context.Context) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no notification channel configured")
	}

	note := alerting.Notification{
		Kind:     alerting.KindFailure,
		At:       time.Now().UTC(),
		Failures: []string{"test notification from chaindash"},
	}
	if err := notifier.Notify(ctx, note); err != nil {
		return err
	}
	a.Logger.Info().Msg("test notification sent")
	return nil
}
