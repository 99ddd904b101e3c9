// Package monitor drives the poll, dedupe, notify and persist cycle.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/5TUM8L3/quakealert/internal/metrics"
	"github.com/5TUM8L3/quakealert/internal/notify"
	"github.com/5TUM8L3/quakealert/internal/quake"
	"github.com/5TUM8L3/quakealert/internal/seen"
)

// Poller yields the events of one poll. It never fails; see feed.Poller.
type Poller interface {
	Poll(ctx context.Context) []quake.Event
}

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, ev quake.Event) notify.Outcome
}

// Cycle summarises one pass.
type Cycle struct {
	ID        string
	Fetched   int
	Duplicate int
	Skipped   int
	Sent      int
	Failed    int
}

type Monitor struct {
	poller   Poller
	store    seen.Store
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger
}

func New(p Poller, s seen.Store, n Notifier, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		poller:   p,
		store:    s,
		notifier: n,
		interval: interval,
		logger:   logger.Named("monitor"),
	}
}

// RunOnce performs a single cycle. An event is marked seen only after its
// notification was sent; failed sends stay unseen so the next poll that still
// covers the event retries them. Each id is attempted at most once per cycle.
func (m *Monitor) RunOnce(ctx context.Context) Cycle {
	c := Cycle{ID: uuid.NewString()}
	log := m.logger.With(zap.String("cycle_id", c.ID))

	evs := m.poller.Poll(ctx)
	c.Fetched = len(evs)
	attempted := make(map[string]struct{}, len(evs))

	for _, ev := range evs {
		if ctx.Err() != nil {
			log.Info("cycle interrupted", zap.Error(ctx.Err()))
			break
		}
		if _, ok := attempted[ev.ID]; ok || m.store.Contains(ev.ID) {
			c.Duplicate++
			continue
		}
		attempted[ev.ID] = struct{}{}
		out := m.notifier.Notify(ctx, ev)
		metrics.Notifications.WithLabelValues(out.Result.String()).Inc()
		switch out.Result {
		case notify.Skipped:
			c.Skipped++
		case notify.Failed:
			c.Failed++
		case notify.Sent:
			c.Sent++
			if err := m.store.Add(ev.ID); err != nil {
				metrics.PersistErrors.Inc()
				log.Error("persist seen id failed", zap.String("id", ev.ID), zap.Error(err))
			}
		}
	}
	metrics.SeenIDs.Set(float64(m.store.Len()))

	log.Info("cycle finished",
		zap.Int("fetched", c.Fetched),
		zap.Int("duplicate", c.Duplicate),
		zap.Int("skipped", c.Skipped),
		zap.Int("sent", c.Sent),
		zap.Int("failed", c.Failed),
	)
	return c
}

// Run cycles until ctx is cancelled. With a non-positive interval it runs one
// cycle and returns.
func (m *Monitor) Run(ctx context.Context) error {
	m.RunOnce(ctx)
	if m.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}
