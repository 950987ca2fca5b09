// Package session provides session lifecycle operations.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/wordcloud/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a session ID does not exist.
var ErrNotFound = errors.New("session: not found")

// Limits on presenter-configurable fields.
const (
	MinEntriesPerUser = 1
	MaxEntriesPerUser = 10
	MinCooldown       = 1
	MaxCooldown       = 168
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "session: " + e.Reason
}

// Defaults fills limits a presenter leaves unset.
type Defaults struct {
	MaxEntriesPerUser int
	CooldownMinutes   int
	Theme             string
}

// DefaultDefaults matches the shipped configuration.
var DefaultDefaults = Defaults{MaxEntriesPerUser: 3, CooldownMinutes: 24, Theme: "default"}

// CreateOpts holds parameters for creating a new session. Zero numeric
// values take the defaults.
type CreateOpts struct {
	Question           string
	Description        string
	BackgroundImageURL string
	Theme              string
	MaxEntriesPerUser  int
	CooldownMinutes    int
	TimeLimitSec       int
	GroupingEnabled    bool
	CreatedBy          string
}

// UpdateOpts holds the fields a presenter may change. Nil means unchanged;
// an empty Description or BackgroundImageURL clears it.
type UpdateOpts struct {
	Question           *string
	Description        *string
	BackgroundImageURL *string
	Theme              *string
	MaxEntriesPerUser  *int
	CooldownMinutes    *int
	TimeLimitSec       *int
	GroupingEnabled    *bool
}

// Create inserts a draft session with a generated ID.
func Create(db *gorm.DB, opts CreateOpts, defaults Defaults) (*models.Session, error) {
	question := strings.TrimSpace(opts.Question)
	if question == "" {
		return nil, &ValidationError{Reason: "question is required"}
	}

	if opts.MaxEntriesPerUser == 0 {
		opts.MaxEntriesPerUser = defaults.MaxEntriesPerUser
	}
	if opts.CooldownMinutes == 0 {
		opts.CooldownMinutes = defaults.CooldownMinutes
	}
	if err := validateLimits(opts.MaxEntriesPerUser, opts.CooldownMinutes); err != nil {
		return nil, err
	}
	if opts.TimeLimitSec < 0 {
		return nil, &ValidationError{Reason: "time limit must not be negative"}
	}
	if opts.Theme == "" {
		opts.Theme = defaults.Theme
	}

	s := models.Session{
		ID:                 uuid.NewString(),
		Question:           question,
		Description:        optionalString(opts.Description),
		BackgroundImageURL: optionalString(opts.BackgroundImageURL),
		Theme:              opts.Theme,
		MaxEntriesPerUser:  opts.MaxEntriesPerUser,
		CooldownMinutes:    opts.CooldownMinutes,
		GroupingEnabled:    opts.GroupingEnabled,
		Status:             models.StatusDraft,
		CreatedBy:          optionalString(opts.CreatedBy),
	}
	if opts.TimeLimitSec > 0 {
		limit := opts.TimeLimitSec
		s.TimeLimitSec = &limit
	}

	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}
	return &s, nil
}

// Get retrieves a session by ID.
func Get(db *gorm.DB, id string) (*models.Session, error) {
	var s models.Session
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	return &s, nil
}

// Update applies opts to the session and returns the stored result.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Session, error) {
	if _, err := Get(db, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if opts.Question != nil {
		q := strings.TrimSpace(*opts.Question)
		if q == "" {
			return nil, &ValidationError{Reason: "question is required"}
		}
		updates["question"] = q
	}
	if opts.Description != nil {
		updates["description"] = optionalString(*opts.Description)
	}
	if opts.BackgroundImageURL != nil {
		updates["background_image_url"] = optionalString(*opts.BackgroundImageURL)
	}
	if opts.Theme != nil && strings.TrimSpace(*opts.Theme) != "" {
		updates["theme"] = strings.TrimSpace(*opts.Theme)
	}
	if opts.MaxEntriesPerUser != nil {
		if n := *opts.MaxEntriesPerUser; n < MinEntriesPerUser || n > MaxEntriesPerUser {
			return nil, &ValidationError{Reason: fmt.Sprintf("max entries per user must be between %d and %d", MinEntriesPerUser, MaxEntriesPerUser)}
		}
		updates["max_entries_per_user"] = *opts.MaxEntriesPerUser
	}
	if opts.CooldownMinutes != nil {
		if n := *opts.CooldownMinutes; n < MinCooldown || n > MaxCooldown {
			return nil, &ValidationError{Reason: fmt.Sprintf("cooldown minutes must be between %d and %d", MinCooldown, MaxCooldown)}
		}
		updates["cooldown_minutes"] = *opts.CooldownMinutes
	}
	if opts.TimeLimitSec != nil {
		switch n := *opts.TimeLimitSec; {
		case n < 0:
			return nil, &ValidationError{Reason: "time limit must not be negative"}
		case n == 0:
			updates["time_limit_sec"] = nil
		default:
			updates["time_limit_sec"] = n
		}
	}
	if opts.GroupingEnabled != nil {
		updates["grouping_enabled"] = *opts.GroupingEnabled
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("session: update %s: %w", id, err)
		}
	}
	return Get(db, id)
}

// Delete removes the session and everything that belongs to it: entries,
// summaries, quotas and order slots, then the session row.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("session: check %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		steps := []struct {
			name  string
			model interface{}
			where string
		}{
			{"entries", &models.Entry{}, "session_id = ?"},
			{"summaries", &models.Summary{}, "session_id = ?"},
			{"quotas", &models.Quota{}, "session_id = ?"},
			{"order", &models.SessionOrder{}, "session_id = ?"},
			{"session", &models.Session{}, "id = ?"},
		}
		for _, st := range steps {
			if err := tx.Where(st.where, id).Delete(st.model).Error; err != nil {
				return fmt.Errorf("session: delete %s of %s: %w", st.name, id, err)
			}
		}
		return nil
	})
}

func validateLimits(maxEntries, cooldown int) error {
	if maxEntries < MinEntriesPerUser || maxEntries > MaxEntriesPerUser {
		return &ValidationError{Reason: fmt.Sprintf("max entries per user must be between %d and %d", MinEntriesPerUser, MaxEntriesPerUser)}
	}
	if cooldown < MinCooldown || cooldown > MaxCooldown {
		return &ValidationError{Reason: fmt.Sprintf("cooldown minutes must be between %d and %d", MinCooldown, MaxCooldown)}
	}
	return nil
}

// optionalString trims s and returns nil when nothing is left.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
