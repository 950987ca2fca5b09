package session

import (
	"fmt"
	"time"

	"github.com/zulandar/wordcloud/internal/models"
	"gorm.io/gorm"
)

// ValidTransitions maps each status to the statuses a presenter may move it
// to. Setting the current status again is a no-op.
var ValidTransitions = map[string][]string{
	models.StatusDraft:  {models.StatusLive},
	models.StatusLive:   {models.StatusClosed},
	models.StatusClosed: {models.StatusLive},
}

// IsValidStatus reports whether s is a known lifecycle status.
func IsValidStatus(s string) bool {
	_, ok := ValidTransitions[s]
	return ok
}

// SetStatus moves the session to status. Entering live stamps LiveAt, which
// restarts the time limit.
func SetStatus(db *gorm.DB, id, status string) (*models.Session, error) {
	if !IsValidStatus(status) {
		return nil, &ValidationError{Reason: "valid status is required (draft/live/closed)"}
	}

	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if s.Status == status {
		return s, nil
	}
	if !isValidTransition(s.Status, status) {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid status transition from %q to %q; valid transitions: %v", s.Status, status, ValidTransitions[s.Status])}
	}

	updates := map[string]interface{}{"status": status}
	if status == models.StatusLive {
		updates["live_at"] = time.Now()
	}
	if err := db.Model(&models.Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("session: set status of %s: %w", id, err)
	}
	return Get(db, id)
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// CloseExpired closes live sessions whose time limit has elapsed since they
// went live. It returns the IDs it closed.
func CloseExpired(db *gorm.DB, now time.Time) ([]string, error) {
	var live []models.Session
	if err := db.Where("status = ? AND time_limit_sec IS NOT NULL AND live_at IS NOT NULL", models.StatusLive).
		Find(&live).Error; err != nil {
		return nil, fmt.Errorf("session: find timed sessions: %w", err)
	}

	var closed []string
	for _, s := range live {
		deadline := s.LiveAt.Add(time.Duration(*s.TimeLimitSec) * time.Second)
		if now.Before(deadline) {
			continue
		}
		result := db.Model(&models.Session{}).
			Where("id = ? AND status = ?", s.ID, models.StatusLive).
			Update("status", models.StatusClosed)
		if result.Error != nil {
			return closed, fmt.Errorf("session: close expired %s: %w", s.ID, result.Error)
		}
		if result.RowsAffected > 0 {
			closed = append(closed, s.ID)
		}
	}
	return closed, nil
}
