// Package sweeper runs periodic maintenance: it closes live sessions whose
// time limit has elapsed and prunes quota rows whose cooldown ended long ago.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/wordcloud/internal/metrics"
	"github.com/zulandar/wordcloud/internal/quota"
	"github.com/zulandar/wordcloud/internal/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSchedule runs the sweep every minute.
const DefaultSchedule = "* * * * *"

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Publisher is told about sessions the sweeper closed.
type Publisher interface {
	Publish(sessionID string)
}

// Options configures a Sweeper.
type Options struct {
	DB         *gorm.DB
	Schedule   string
	PruneGrace time.Duration
	Publisher  Publisher
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Report summarises one sweep.
type Report struct {
	Closed []string
	Pruned int64
}

// Sweeper owns the maintenance schedule.
type Sweeper struct {
	db        *gorm.DB
	schedule  cron.Schedule
	grace     time.Duration
	publisher Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New validates the schedule and returns a Sweeper.
func New(opts Options) (*Sweeper, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("sweeper: db is required")
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("sweeper: parse schedule %q: %w", opts.Schedule, err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Sweeper{
		db:        opts.DB,
		schedule:  sched,
		grace:     opts.PruneGrace,
		publisher: opts.Publisher,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}, nil
}

// Sweep runs one maintenance pass.
func (s *Sweeper) Sweep(ctx context.Context) (*Report, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	closed, err := session.CloseExpired(db, now)
	if err != nil {
		return nil, fmt.Errorf("sweeper: %w", err)
	}
	for _, id := range closed {
		s.log.Info("session time limit reached, closed", zap.String("session", id))
		if s.publisher != nil {
			s.publisher.Publish(id)
		}
	}

	pruned, err := quota.Prune(db, now, s.grace)
	if err != nil {
		return nil, fmt.Errorf("sweeper: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SessionsClosed.Add(float64(len(closed)))
		s.metrics.QuotasPruned.Add(float64(pruned))
	}
	return &Report{Closed: closed, Pruned: pruned}, nil
}

// Next returns the duration until the schedule next fires after t.
func (s *Sweeper) Next(t time.Time) time.Duration {
	d := s.schedule.Next(t).Sub(t)
	if d < 0 {
		return 0
	}
	return d
}

// Run sweeps on schedule until ctx is cancelled. Failed sweeps are logged and
// retried at the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	timer := time.NewTimer(s.Next(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			report, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("sweep failed", zap.Error(err))
			} else if len(report.Closed) > 0 || report.Pruned > 0 {
				s.log.Debug("sweep complete",
					zap.Int("closed", len(report.Closed)),
					zap.Int64("pruned", report.Pruned))
			}
			timer.Reset(s.Next(s.now()))
		}
	}
}
