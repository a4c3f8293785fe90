package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultDispatchTimeout = 10 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// never reach the caller.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher wraps notifier. A non-positive timeout uses the default.
func NewDispatcher(notifier Notifier, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{notifier: notifier, logger: logger, timeout: timeout}
}

// Dispatch delivers n on its own goroutine. The request context only
// contributes its values; delivery outlives the request.
func (d *Dispatcher) Dispatch(ctx context.Context, n StatusNotification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification panicked", slog.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(sendCtx, n); err != nil {
			d.logger.ErrorContext(sendCtx, "failed to send status notification",
				slog.String("application_id", n.ApplicationID.String()),
				slog.String("status", n.Status),
				slog.Any("error", err))
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
