/**
 * @description
 * The maturity scheduler is the periodic task that keeps time-driven state
 * current: it credits due monthly interest, settles matured deposit accounts
 * with their pre-chosen rollover disposition, and advances interest-rate
 * statuses past their effective and expiry dates.
 *
 * The clock and interval are injected so tests can drive ticks directly, and
 * every run is idempotent: the interest claim table absorbs duplicate
 * payments and settled accounts drop out of the candidate list.
 */

package app

import (
	"context"
	"log"
	"time"
)

// Scheduler runs the periodic maturity and interest sweep.
type Scheduler struct {
	service  *Service
	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates a scheduler. A nil clock defaults to time.Now.
func NewScheduler(service *Service, interval time.Duration, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{service: service, interval: interval, now: now}
}

// Start launches the sweep loop in a goroutine. One run fires immediately;
// the loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				log.Printf("level=info component=scheduler msg=\"sweep loop stopped\"")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce executes a single sweep. Interest is paid before maturities are
// settled so a REGULAR contract receives its final month on the maturity day
// before the balance is resolved.
func (s *Scheduler) RunOnce(ctx context.Context) {
	today := s.now()

	flipped, err := s.service.repo.SweepInterestRateStatuses(ctx, today)
	if err != nil {
		log.Printf("level=error component=scheduler msg=\"rate status sweep failed\" err=%v", err)
	} else if flipped > 0 {
		log.Printf("level=info component=scheduler msg=\"rate statuses advanced\" count=%d", flipped)
	}

	paid, err := s.service.PayDueInterest(ctx, today)
	if err != nil {
		log.Printf("level=error component=scheduler msg=\"interest sweep failed\" err=%v", err)
	} else if paid > 0 {
		log.Printf("level=info component=scheduler msg=\"monthly interest paid\" accounts=%d", paid)
	}

	settled, err := s.service.UpdateMaturity(ctx, today)
	if err != nil {
		log.Printf("level=error component=scheduler msg=\"maturity sweep failed\" err=%v", err)
	} else if settled > 0 {
		log.Printf("level=info component=scheduler msg=\"matured accounts settled\" accounts=%d", settled)
	}
}
