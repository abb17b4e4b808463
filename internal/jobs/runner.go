// Package jobs schedules recurring maintenance work with cron.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/car-rental/internal/repository"
)

// Runner owns the cron scheduler and the repositories the jobs act on.
type Runner struct {
	cron    *cron.Cron
	rentals *repository.RentalRepo
}

// NewRunner builds a Runner with its jobs registered but not yet started.
func NewRunner(rentals *repository.RentalRepo) *Runner {
	r := &Runner{
		cron:    cron.New(),
		rentals: rentals,
	}
	r.register()
	return r
}

func (r *Runner) register() {
	// Shortly after midnight UTC: pending requests whose start date has
	// already passed can no longer be honored, so reject them instead of
	// leaving them queued for an admin decision.
	if _, err := r.cron.AddFunc("5 0 * * *", func() {
		r.runWithRecovery("expire-stale-pending", r.expireStalePending)
	}); err != nil {
		log.Fatalf("jobs: failed to register expire-stale-pending: %v", err)
	}
}

// Start launches the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
	log.Println("jobs: scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Println("jobs: scheduler stopped")
}

// runWithRecovery guards a job against panics so one bad run cannot take
// down the scheduler goroutine.
func (r *Runner) runWithRecovery(name string, job func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("jobs: %s panicked: %v", name, rec)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := job(ctx); err != nil {
		log.Printf("jobs: %s failed: %v", name, err)
	}
}

func (r *Runner) expireStalePending(ctx context.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	n, err := r.rentals.RejectStartedBefore(ctx, today)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("jobs: expire-stale-pending rejected %d rental(s)", n)
	}
	return nil
}
