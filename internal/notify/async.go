package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

// Async hands notifications to a background goroutine so callers never wait
// on the mail relay. Each delivery gets its own timeout and outlives the
// request that triggered it; failures are logged.
type Async struct {
	next    Notifier
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration, log *slog.Logger) *Async {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Async{next: next, timeout: timeout, log: log}
}

// Notify always returns nil; the outcome is only logged.
func (a *Async) Notify(ctx context.Context, rec contact.Record) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, rec); err != nil {
			a.log.Warn("Failed to notify owner", "contact_id", rec.ID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until pending deliveries finish or ctx ends.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
