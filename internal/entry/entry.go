// Package entry accepts participant submissions: it validates the word for
// the submitting surface, passes it through the quota gate and announces
// accepted entries to live subscribers.
package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/metrics"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/quota"
	"github.com/zulandar/wordcloud/internal/text"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Publisher is notified after a session's aggregate changes.
type Publisher interface {
	Publish(sessionID string)
}

// Gate decides quota attempts. *quota.Gate is the production implementation.
type Gate interface {
	Attempt(ctx context.Context, req quota.AttemptRequest) (*quota.Decision, error)
}

// SubmitRequest is one participant submission.
type SubmitRequest struct {
	SessionID     string
	ParticipantID string
	Word          string
	Surface       string
}

// Result describes the outcome of an accepted or quota-rejected submission.
type Result struct {
	Accepted                 bool
	Guarded                  bool
	Reason                   string
	AttemptsLeft             int
	CooldownRemainingSeconds int64
	Entry                    *models.Entry
}

// Options configures a Service.
type Options struct {
	DB *gorm.DB
	// Gate defaults to a quota.Gate on DB.
	Gate     Gate
	Surfaces text.Surfaces
	// Fallback writes entries without a quota check when the gate is
	// unavailable.
	Fallback  bool
	Publisher Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Service handles submissions and participant-scoped reads.
type Service struct {
	db        *gorm.DB
	gate      Gate
	surfaces  text.Surfaces
	fallback  bool
	publisher Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService returns a Service. Nil Surfaces selects the defaults.
func NewService(opts Options) *Service {
	if opts.Surfaces == nil {
		opts.Surfaces = text.DefaultSurfaces()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Gate == nil {
		opts.Gate = quota.NewGate(opts.DB)
	}
	return &Service{
		db:        opts.DB,
		gate:      opts.Gate,
		surfaces:  opts.Surfaces,
		fallback:  opts.Fallback,
		publisher: opts.Publisher,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
}

// SurfacesFromConfig builds the submission surfaces from cfg.
func SurfacesFromConfig(cfg config.SubmissionConfig) text.Surfaces {
	std := text.Standard
	compact := text.Compact
	if cfg.StandardMaxLen > 0 {
		std.MaxLen = cfg.StandardMaxLen
	}
	if cfg.CompactMaxLen > 0 {
		compact.MaxLen = cfg.CompactMaxLen
	}
	std.CheckProfanity = cfg.ProfanityFilter
	compact.CheckProfanity = cfg.ProfanityFilter
	return text.Surfaces{std.Name: std, compact.Name: compact}
}

// Submit validates req and runs it through the quota gate. Validation
// failures match text.ErrInvalidInput and persist nothing. Quota and
// lifecycle rejections are reported in the Result, not as errors.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	surface, err := s.surfaces.Lookup(req.Surface)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		return nil, err
	}
	if err := surface.Validate(req.Word); err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		return nil, err
	}
	word := text.TrimSpace(req.Word)

	d, err := s.gate.Attempt(ctx, quota.AttemptRequest{
		SessionID:     req.SessionID,
		ParticipantID: req.ParticipantID,
		Word:          word,
		Now:           s.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, quota.ErrUnavailable) && s.fallback:
		return s.submitUnguarded(ctx, req.SessionID, req.ParticipantID, word, err)
	case errors.Is(err, quota.ErrBusy):
		s.metrics.Submission(metrics.OutcomeBusy)
		s.log.Info("quota gate busy, submission refused",
			zap.String("session", req.SessionID),
			zap.String("participant", req.ParticipantID),
			zap.Error(err))
		return nil, err
	default:
		if !errors.Is(err, quota.ErrSessionNotFound) {
			s.metrics.Submission(metrics.OutcomeError)
		}
		return nil, err
	}

	res := &Result{
		Accepted:                 d.Accepted,
		Guarded:                  true,
		Reason:                   d.Reason,
		AttemptsLeft:             d.AttemptsLeft,
		CooldownRemainingSeconds: d.CooldownRemainingSeconds,
		Entry:                    d.Entry,
	}
	s.metrics.Submission(outcome(d))
	if d.Accepted {
		s.log.Debug("entry accepted",
			zap.String("session", req.SessionID),
			zap.String("participant", req.ParticipantID),
			zap.String("cluster", d.Entry.ClusterKey),
			zap.Int("attempts_left", d.AttemptsLeft))
		s.publish(req.SessionID)
	}
	return res, nil
}

// submitUnguarded records the entry with no quota check. It gives no
// backpressure at all and exists so a broken gate does not stop a live
// audience from submitting.
func (s *Service) submitUnguarded(ctx context.Context, sessionID, participantID, word string, cause error) (*Result, error) {
	s.log.Warn("quota gate unavailable, recording entry without quota check",
		zap.String("session", sessionID),
		zap.String("participant", participantID),
		zap.Error(cause))

	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess models.Session
		if err := tx.Select("id", "status").Where("id = ?", sessionID).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", quota.ErrSessionNotFound, sessionID)
			}
			return err
		}
		if sess.Status != models.StatusLive {
			res = Result{Reason: quota.ReasonSessionNotLive}
			return nil
		}
		e, err := quota.RecordEntry(tx, sessionID, participantID, word, false)
		if err != nil {
			return err
		}
		res = Result{Accepted: true, Entry: e}
		return nil
	})
	if err != nil {
		if errors.Is(err, quota.ErrSessionNotFound) {
			return nil, err
		}
		s.metrics.Submission(metrics.OutcomeError)
		return nil, fmt.Errorf("entry: unguarded insert for %s: %w", sessionID, errors.Join(cause, err))
	}

	if !res.Accepted {
		s.metrics.Submission(metrics.OutcomeNotLive)
		return &res, nil
	}
	s.metrics.Submission(metrics.OutcomeFallback)
	if s.metrics != nil {
		s.metrics.FallbackInserts.Inc()
	}
	s.publish(sessionID)
	return &res, nil
}

func (s *Service) publish(sessionID string) {
	if s.publisher != nil {
		s.publisher.Publish(sessionID)
	}
}

func outcome(d *quota.Decision) string {
	if d.Accepted {
		return metrics.OutcomeAccepted
	}
	switch d.Reason {
	case quota.ReasonCooldown:
		return metrics.OutcomeCooldown
	case quota.ReasonNoAttempts:
		return metrics.OutcomeNoAttempts
	default:
		return metrics.OutcomeNotLive
	}
}

// LastSubmission returns the time of the participant's newest entry in the
// session, or nil when there is none.
func (s *Service) LastSubmission(ctx context.Context, sessionID, participantID string) (*time.Time, error) {
	var e models.Entry
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Order("created_at DESC").Order("id DESC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entry: last submission %s/%s: %w", sessionID, participantID, err)
	}
	return &e.CreatedAt, nil
}

// Count returns how many entries the participant has submitted to the
// session.
func (s *Service) Count(ctx context.Context, sessionID, participantID string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Entry{}).
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("entry: count %s/%s: %w", sessionID, participantID, err)
	}
	return n, nil
}
