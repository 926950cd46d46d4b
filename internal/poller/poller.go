// Package poller refreshes the dashboard in the background with the filter
// the user last asked for.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/utils"
)

type Runner interface {
	Run(ctx context.Context, filter models.DateFilter) (*models.Snapshot, error)
}

type FilterSource interface {
	Filter() models.DateFilter
}

type Poller struct {
	run      Runner
	filters  FilterSource
	interval time.Duration
	backoff  utils.Backoff
	steady   utils.Backoff
	log      *slog.Logger
}

// New builds a poller that refreshes every interval. After a failure it
// retries sooner, backing off from retry up to the interval.
func New(run Runner, filters FilterSource, interval, retry time.Duration, log *slog.Logger) *Poller {
	return &Poller{
		run:      run,
		filters:  filters,
		interval: interval,
		backoff:  utils.NewBackoff(retry, interval),
		steady:   utils.NewBackoff(interval, interval),
		log:      log,
	}
}

// Start refreshes right away, then keeps refreshing until ctx is done. A zero
// interval disables polling.
func (p *Poller) Start(ctx context.Context) error {
	if p.interval <= 0 {
		p.log.Info("polling disabled")
		return nil
	}
	failures := 0
	for {
		if _, err := p.run.Run(ctx, p.filters.Filter()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			p.log.Warn("poll failed", slog.Int("failures", failures), slog.Duration("retry_in", p.next(failures)))
		} else {
			failures = 0
		}

		if err := p.wait(ctx, failures); err != nil {
			return nil
		}
	}
}

// wait sleeps for the interval, or for the backoff delay after failures.
func (p *Poller) wait(ctx context.Context, failures int) error {
	if failures == 0 || p.backoff.Delay(failures) >= p.interval {
		return p.steady.Wait(ctx, 1)
	}
	return p.backoff.Wait(ctx, failures)
}

func (p *Poller) next(failures int) time.Duration {
	if failures == 0 {
		return p.interval
	}
	return min(p.backoff.Delay(failures), p.interval)
}
