package models

import "time"

// Entry is one raw participant submission. Only Blocked ever changes after
// insert.
type Entry struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	SessionID     string `gorm:"size:36;not null;index:idx_entry_session_participant;index:idx_entry_session_cluster"`
	ParticipantID string `gorm:"size:64;not null;index:idx_entry_session_participant"`
	WordRaw       string `gorm:"size:255;not null"`
	WordNorm      string `gorm:"size:255;not null"`
	ClusterKey    string `gorm:"size:255;not null;index:idx_entry_session_cluster"`
	Blocked       bool   `gorm:"default:false"`
	Guarded       bool   `gorm:"not null"` // false when written without a quota check
	CreatedAt     time.Time
}

// Summary is the per-cluster rollup over non-blocked entries.
type Summary struct {
	SessionID   string `gorm:"primaryKey;size:36"`
	ClusterKey  string `gorm:"primaryKey;size:255"`
	DisplayWord string `gorm:"size:255;not null"`
	Count       int    `gorm:"not null;default:0;index"`
	Color       string `gorm:"size:16"`
	UpdatedAt   time.Time
}

// Quota tracks remaining attempts and cooldown per participant per session.
type Quota struct {
	SessionID     string     `gorm:"primaryKey;size:36"`
	ParticipantID string     `gorm:"primaryKey;size:64"`
	AttemptsLeft  int        `gorm:"not null"`
	CooldownUntil *time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
