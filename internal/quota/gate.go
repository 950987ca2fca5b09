// Package quota enforces the per-participant submission allowance: a fixed
// number of attempts per session, followed by a cooldown once they run out.
//
// The check-and-decrement runs as a conditional UPDATE inside a database
// transaction together with the entry insert and the aggregate upsert, so an
// accepted attempt and its entry are persisted together or not at all.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/wordcloud/internal/aggregate"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/text"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSessionNotFound is returned when the attempt names an unknown session.
	ErrSessionNotFound = errors.New("quota: session not found")
	// ErrUnavailable wraps store failures during an attempt: a closed or
	// unreachable database, a missing table. Callers may fall back to an
	// unguarded insert.
	ErrUnavailable = errors.New("quota: gate unavailable")
	// ErrBusy wraps lock contention and cancellation. The store is working
	// and the participant's quota may be binding, so there is no fallback.
	ErrBusy = errors.New("quota: gate busy")
)

// Rejection reasons.
const (
	ReasonCooldown       = "COOLDOWN"
	ReasonNoAttempts     = "NO_ATTEMPTS"
	ReasonSessionNotLive = "SESSION_NOT_LIVE"
)

// AttemptRequest is one submission presented to the gate. Word must already
// be validated.
type AttemptRequest struct {
	SessionID     string
	ParticipantID string
	Word          string
	Now           time.Time
}

// Decision is the gate's answer. Entry is set only when Accepted.
type Decision struct {
	Accepted                 bool
	Reason                   string
	AttemptsLeft             int
	CooldownRemainingSeconds int64
	Entry                    *models.Entry
}

// Gate runs attempts against the store.
type Gate struct {
	db *gorm.DB
}

// NewGate returns a gate backed by db.
func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// Attempt consumes one attempt and records the entry, or rejects without
// touching any state.
func (g *Gate) Attempt(ctx context.Context, req AttemptRequest) (*Decision, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	var d Decision
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s models.Session
		if err := tx.Where("id = ?", req.SessionID).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("load session: %w", err)
		}
		if s.Status != models.StatusLive {
			d = Decision{Reason: ReasonSessionNotLive}
			return nil
		}

		q, err := lockQuota(tx, &s, req.ParticipantID)
		if err != nil {
			return err
		}

		// An elapsed cooldown means the participant starts over.
		if q.CooldownUntil != nil && !q.CooldownUntil.After(now) {
			if err := pk(tx, q).Updates(map[string]interface{}{
				"attempts_left":  s.MaxEntriesPerUser,
				"cooldown_until": nil,
			}).Error; err != nil {
				return fmt.Errorf("reset quota: %w", err)
			}
			q.AttemptsLeft = s.MaxEntriesPerUser
			q.CooldownUntil = nil
		}

		result := tx.Model(&models.Quota{}).
			Where("session_id = ? AND participant_id = ? AND attempts_left > 0 AND cooldown_until IS NULL",
				q.SessionID, q.ParticipantID).
			Update("attempts_left", gorm.Expr("attempts_left - 1"))
		if result.Error != nil {
			return fmt.Errorf("decrement quota: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			d = reject(q, now)
			return nil
		}

		left := q.AttemptsLeft - 1
		d = Decision{Accepted: true, AttemptsLeft: left}
		if left <= 0 {
			until := now.Add(s.CooldownPeriod())
			if err := pk(tx, q).Update("cooldown_until", until).Error; err != nil {
				return fmt.Errorf("start cooldown: %w", err)
			}
			d.CooldownRemainingSeconds = RemainingSeconds(&until, now)
		}

		e, err := RecordEntry(tx, req.SessionID, req.ParticipantID, req.Word, true)
		if err != nil {
			return err
		}
		d.Entry = e
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)
		}
		if ctx.Err() != nil || isContention(err) {
			return nil, fmt.Errorf("%w: attempt on %s: %w", ErrBusy, req.SessionID, err)
		}
		return nil, fmt.Errorf("%w: attempt on %s: %v", ErrUnavailable, req.SessionID, err)
	}
	return &d, nil
}

// lockQuota creates the participant's row on first contact and reads it
// back under a row lock.
func lockQuota(tx *gorm.DB, s *models.Session, participantID string) (*models.Quota, error) {
	fresh := models.Quota{
		SessionID:     s.ID,
		ParticipantID: participantID,
		AttemptsLeft:  s.MaxEntriesPerUser,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("ensure quota: %w", err)
	}

	var q models.Quota
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ? AND participant_id = ?", s.ID, participantID).
		First(&q).Error; err != nil {
		return nil, fmt.Errorf("read quota: %w", err)
	}
	return &q, nil
}

func reject(q *models.Quota, now time.Time) Decision {
	if q.CooldownUntil != nil && q.CooldownUntil.After(now) {
		return Decision{
			Reason:                   ReasonCooldown,
			AttemptsLeft:             0,
			CooldownRemainingSeconds: RemainingSeconds(q.CooldownUntil, now),
		}
	}
	return Decision{Reason: ReasonNoAttempts, AttemptsLeft: q.AttemptsLeft}
}

func pk(tx *gorm.DB, q *models.Quota) *gorm.DB {
	return tx.Model(&models.Quota{}).
		Where("session_id = ? AND participant_id = ?", q.SessionID, q.ParticipantID)
}

// RemainingSeconds returns max(0, floor((until - now) / 1s)); nil is 0.
func RemainingSeconds(until *time.Time, now time.Time) int64 {
	if until == nil {
		return 0
	}
	secs := int64(until.Sub(now) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// RecordEntry inserts an entry for word and bumps the session's aggregate
// row for its cluster. The first entry of a cluster fixes the display word
// and colour.
func RecordEntry(tx *gorm.DB, sessionID, participantID, word string, guarded bool) (*models.Entry, error) {
	e := models.Entry{
		SessionID:     sessionID,
		ParticipantID: participantID,
		WordRaw:       word,
		WordNorm:      text.Normalize(word),
		ClusterKey:    text.ClusterKey(word),
		Guarded:       guarded,
	}
	if err := tx.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	if err := aggregate.Add(tx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
