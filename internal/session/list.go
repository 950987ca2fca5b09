package session

import (
	"fmt"

	"github.com/zulandar/wordcloud/internal/models"
	"gorm.io/gorm"
)

// Overview is a session with its participation counts.
type Overview struct {
	models.Session
	ParticipantCount int64 `json:"participant_count"`
	WordCount        int64 `json:"word_count"`
	TotalEntries     int64 `json:"total_entries"`
}

// List returns all sessions, newest first, with participant, distinct word
// and entry counts.
func List(db *gorm.DB) ([]Overview, error) {
	var sessions []models.Session
	if err := db.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	type entryCount struct {
		SessionID    string
		Participants int64
		Entries      int64
	}
	var entryRows []entryCount
	if err := db.Model(&models.Entry{}).
		Select("session_id, COUNT(DISTINCT participant_id) AS participants, COUNT(*) AS entries").
		Group("session_id").
		Find(&entryRows).Error; err != nil {
		return nil, fmt.Errorf("session: count entries: %w", err)
	}

	type wordCount struct {
		SessionID string
		Words     int64
	}
	var wordRows []wordCount
	if err := db.Model(&models.Summary{}).
		Select("session_id, COUNT(*) AS words").
		Group("session_id").
		Find(&wordRows).Error; err != nil {
		return nil, fmt.Errorf("session: count words: %w", err)
	}

	entries := make(map[string]entryCount, len(entryRows))
	for _, r := range entryRows {
		entries[r.SessionID] = r
	}
	words := make(map[string]int64, len(wordRows))
	for _, r := range wordRows {
		words[r.SessionID] = r.Words
	}

	out := make([]Overview, len(sessions))
	for i, s := range sessions {
		out[i] = Overview{
			Session:          s,
			ParticipantCount: entries[s.ID].Participants,
			TotalEntries:     entries[s.ID].Entries,
			WordCount:        words[s.ID],
		}
	}
	return out, nil
}
