// Package scheduler executes due recurring payments on a daily cadence.
package scheduler

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/service"
	"github.com/rumaak/bank-app/internal/store"
)

var (
	passesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bank_scheduler_passes_total",
		Help: "Completed recurring payment scan passes",
	})

	standingOrdersExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bank_standing_orders_executed_total",
		Help: "Standing order transfers executed by the scheduler",
	})
)

// Scheduler scans all recurring payments once per interval and processes
// the due ones. It never touches the socket; money movement reuses the
// service layer.
type Scheduler struct {
	store  *store.Store
	svc    *service.Service
	failed *atomic.Bool
	period time.Duration
	now    func() time.Time
	stop   chan struct{}
}

func New(st *store.Store, svc *service.Service, failed *atomic.Bool) *Scheduler {
	return &Scheduler{
		store:  st,
		svc:    svc,
		failed: failed,
		period: 24 * time.Hour,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
}

// WithClock replaces the scheduler's time source (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// WithPeriod overrides the scan cadence (tests).
func (s *Scheduler) WithPeriod(d time.Duration) *Scheduler {
	s.period = d
	return s
}

// Run loops until a pass fails or Stop is called. A failed pass raises the
// shared flag; the accept loop observes it and shuts the process down.
func (s *Scheduler) Run() {
	for {
		if err := s.Pass(); err != nil {
			log.Printf("scheduler: %v", err)
			s.failed.Store(true)
			return
		}
		select {
		case <-s.stop:
			return
		case <-time.After(s.period):
		}
	}
}

// Stop ends the loop after the current pass.
func (s *Scheduler) Stop() {
	close(s.stop)
}

// Pass loads every recurring payment and processes the due ones.
func (s *Scheduler) Pass() error {
	payments, err := s.store.AllRecurringPayments()
	if err != nil {
		return err
	}
	for i := range payments {
		if err := s.process(&payments[i]); err != nil {
			return err
		}
	}
	passesTotal.Inc()
	return nil
}

func (s *Scheduler) process(rp *domain.RecurringPayment) error {
	now := s.now()
	if rp.NextPayment.After(now) {
		return nil
	}

	switch rp.Type {
	case domain.StandingOrder:
		// Execute if possible; a missing account or blocked source lapses
		// silently. Either way the schedule advances one interval.
		executed, err := s.svc.ExecuteStandingOrder(rp)
		if err != nil {
			return err
		}
		if executed {
			standingOrdersExecuted.Inc()
		}
		return s.store.UpdateNextPayment(rp.SourceEmail, rp.SourceName, rp.Interval.Next(rp.NextPayment))

	case domain.DirectDebit:
		// No money moves here; pulls happen on the beneficiary's request.
		// Collapse an unused window only when the following cycle is also
		// already due, so a still-open window stays available.
		next := rp.Interval.Next(rp.NextPayment)
		if next.After(now) {
			return nil
		}
		return s.store.UpdateNextPayment(rp.SourceEmail, rp.SourceName, next)
	}
	return nil
}
