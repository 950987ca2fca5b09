package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/wordcloud/internal/models"
	"gorm.io/gorm"
)

// State is a read-only view of a participant's allowance.
type State struct {
	AttemptsLeft             int        `json:"attempts_left"`
	CooldownRemainingSeconds int64      `json:"cooldown_remaining_seconds"`
	CooldownUntil            *time.Time `json:"cooldown_until"`
}

// Status reports the participant's allowance without writing. A participant
// with no record, or whose cooldown has elapsed, has the session's full
// allowance.
func Status(ctx context.Context, db *gorm.DB, sessionID, participantID string, now time.Time) (*State, error) {
	db = db.WithContext(ctx)

	var s models.Session
	if err := db.Select("id", "max_entries_per_user").Where("id = ?", sessionID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("quota: status of %s: %w", sessionID, err)
	}

	var q models.Quota
	err := db.Where("session_id = ? AND participant_id = ?", sessionID, participantID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &State{AttemptsLeft: s.MaxEntriesPerUser}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("quota: status of %s/%s: %w", sessionID, participantID, err)
	}

	if q.CooldownUntil != nil && !q.CooldownUntil.After(now) {
		return &State{AttemptsLeft: s.MaxEntriesPerUser}, nil
	}
	return &State{
		AttemptsLeft:             q.AttemptsLeft,
		CooldownRemainingSeconds: RemainingSeconds(q.CooldownUntil, now),
		CooldownUntil:            q.CooldownUntil,
	}, nil
}

// ResetSession clears every quota row of the session, returning all of its
// participants to a fresh allowance.
func ResetSession(db *gorm.DB, sessionID string) (int64, error) {
	result := db.Where("session_id = ?", sessionID).Delete(&models.Quota{})
	if result.Error != nil {
		return 0, fmt.Errorf("quota: reset %s: %w", sessionID, result.Error)
	}
	return result.RowsAffected, nil
}

// Prune deletes rows whose cooldown ended more than grace before now. Such
// rows are indistinguishable from a missing record.
func Prune(db *gorm.DB, now time.Time, grace time.Duration) (int64, error) {
	cutoff := now.Add(-grace)
	result := db.Where("cooldown_until IS NOT NULL AND cooldown_until < ?", cutoff).Delete(&models.Quota{})
	if result.Error != nil {
		return 0, fmt.Errorf("quota: prune: %w", result.Error)
	}
	return result.RowsAffected, nil
}
