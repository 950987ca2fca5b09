package models

import "time"

// Session statuses.
const (
	StatusDraft  = "draft"
	StatusLive   = "live"
	StatusClosed = "closed"
)

// Session is one prompt/collection campaign.
type Session struct {
	ID                 string  `gorm:"primaryKey;size:36"`
	Question           string  `gorm:"type:text;not null"`
	Description        *string `gorm:"type:text"`
	BackgroundImageURL *string `gorm:"type:mediumtext"` // data URIs from /upload/image
	Theme              string  `gorm:"size:32;default:default"`
	MaxEntriesPerUser  int     `gorm:"default:3"`
	CooldownMinutes    int     `gorm:"default:24"`
	TimeLimitSec       *int
	GroupingEnabled    bool    `gorm:"default:false"`
	Status             string  `gorm:"size:16;default:draft;index"`
	CreatedBy          *string `gorm:"size:64"`
	LiveAt             *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Entries   []Entry   `gorm:"foreignKey:SessionID"`
	Summaries []Summary `gorm:"foreignKey:SessionID"`
}

// CooldownPeriod returns the configured cooldown as a duration.
func (s *Session) CooldownPeriod() time.Duration {
	return time.Duration(s.CooldownMinutes) * time.Minute
}

// SessionOrder is one slot of the presenter-defined display order.
type SessionOrder struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  string `gorm:"size:36;not null;index"`
	OrderIndex int    `gorm:"not null"`
}
