package app

import (
	"context"
	"time"

	"github.com/expertdesk/availability/internal/service"
	"go.uber.org/zap"
)

// Janitor runs the periodic maintenance sweep: confirmed bookings whose date
// has passed are flipped to completed so they stop looking actionable.
type Janitor struct {
	schedule *service.ScheduleService
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewJanitor(schedule *service.ScheduleService, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		schedule: schedule,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("Starting maintenance janitor", zap.Duration("interval", j.interval))
	go j.run(ctx)
}

func (j *Janitor) Stop() {
	j.logger.Info("Stopping maintenance janitor")
	close(j.stopChan)
}

func (j *Janitor) run(ctx context.Context) {
	// First sweep right away, then on the ticker.
	j.sweep(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-j.stopChan:
			j.logger.Info("Janitor stopped")
			return
		case <-ctx.Done():
			j.logger.Info("Janitor cancelled")
			return
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	count, err := j.schedule.CompletePastBookings(ctx)
	if err != nil {
		j.logger.Error("Failed to complete past bookings", zap.Error(err))
		return
	}
	if count > 0 {
		j.logger.Info("Past bookings completed", zap.Int64("count", count))
	}
}
