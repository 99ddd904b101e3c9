package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/5TUM8L3/quakealert/internal/metrics"
	"github.com/5TUM8L3/quakealert/internal/quake"
)

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]quake.Event, error)
}

// Cursor marks the last poll attempt. It only moves forward. Reads are safe
// from other goroutines (the health endpoint).
type Cursor struct {
	mu sync.RWMutex
	at time.Time
}

func (c *Cursor) Time() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// Advance moves the cursor to t unless t is older than the current value.
func (c *Cursor) Advance(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.at) {
		c.at = t
	}
}

// Poller owns the cursor and applies the degrade-to-empty policy: a failed
// fetch is logged and reported as no events.
type Poller struct {
	fetcher      Fetcher
	minMagnitude float64
	overlap      time.Duration
	cursor       Cursor
	now          func() time.Time
	logger       *zap.Logger
}

// NewPoller starts the cursor at start. Pass time.Now().Add(-lookback) to
// reach further back on the first query.
func NewPoller(f Fetcher, minMagnitude float64, overlap time.Duration, start time.Time, logger *zap.Logger) *Poller {
	return &Poller{
		fetcher:      f,
		minMagnitude: minMagnitude,
		overlap:      overlap,
		cursor:       Cursor{at: start},
		now:          time.Now,
		logger:       logger.Named("feed"),
	}
}

// Cursor returns the time of the last poll attempt.
func (p *Poller) Cursor() time.Time { return p.cursor.Time() }

// NextQuery is the query the next Poll will issue.
func (p *Poller) NextQuery() Query {
	return Query{Start: p.cursor.Time().Add(-p.overlap), MinMagnitude: p.minMagnitude}
}

// Poll fetches events since the cursor minus the overlap. Errors never reach
// the caller. The cursor advances to the current time whether or not the
// fetch succeeded.
func (p *Poller) Poll(ctx context.Context) []quake.Event {
	q := p.NextQuery()
	began := p.now()
	defer func() {
		p.cursor.Advance(began)
		metrics.LastPoll.Set(float64(began.Unix()))
	}()

	evs, err := p.fetcher.Fetch(ctx, q)
	metrics.FetchDuration.Observe(p.now().Sub(began).Seconds())
	if err != nil {
		metrics.Polls.WithLabelValues("error").Inc()
		p.logger.Warn("feed fetch failed",
			zap.Time("since", q.Start),
			zap.Float64("min_magnitude", q.MinMagnitude),
			zap.Error(err),
		)
		return []quake.Event{}
	}
	metrics.Polls.WithLabelValues("ok").Inc()
	metrics.EventsFetched.Add(float64(len(evs)))
	p.logger.Debug("feed fetched",
		zap.Time("since", q.Start),
		zap.Int("events", len(evs)),
	)
	if evs == nil {
		evs = []quake.Event{}
	}
	return evs
}
