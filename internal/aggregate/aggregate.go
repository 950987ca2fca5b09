// Package aggregate maintains and reads the per-cluster summary rows that
// feed the word cloud.
package aggregate

import (
	"fmt"
	"time"

	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/render"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTop is the number of rows Top returns when n is not positive.
const DefaultTop = 3

// Add counts e in its cluster's summary row, creating the row with e's
// normalized word and colour when the cluster is new. Call it in the same
// transaction that inserted e.
func Add(tx *gorm.DB, e *models.Entry) error {
	row := models.Summary{
		SessionID:   e.SessionID,
		ClusterKey:  e.ClusterKey,
		DisplayWord: e.WordNorm,
		Count:       1,
		Color:       render.Color(e.WordNorm),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "cluster_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("aggregate: add %s/%s: %w", e.SessionID, e.ClusterKey, err)
	}
	return nil
}

// List returns the session's summary rows by count descending. A limit of
// zero returns every row.
func List(db *gorm.DB, sessionID string, limit int) ([]models.Summary, error) {
	q := db.Where("session_id = ?", sessionID).Order("count DESC").Order("cluster_key ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Summary
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate: list %s: %w", sessionID, err)
	}
	return rows, nil
}

// Top returns the n most frequent clusters.
func Top(db *gorm.DB, sessionID string, n int) ([]models.Summary, error) {
	if n <= 0 {
		n = DefaultTop
	}
	return List(db, sessionID, n)
}

// Items converts summary rows to render input.
func Items(rows []models.Summary) []render.Item {
	items := make([]render.Item, len(rows))
	for i, r := range rows {
		items[i] = render.Item{Text: r.DisplayWord, Count: r.Count, Color: r.Color}
	}
	return items
}

// Remove deletes the cluster's summary row and blocks its entries so a
// rebuild does not bring it back. It reports whether anything changed.
func Remove(db *gorm.DB, sessionID, clusterKey string) (bool, error) {
	var changed bool
	err := db.Transaction(func(tx *gorm.DB) error {
		del := tx.Where("session_id = ? AND cluster_key = ?", sessionID, clusterKey).Delete(&models.Summary{})
		if del.Error != nil {
			return fmt.Errorf("delete summary: %w", del.Error)
		}
		blk := tx.Model(&models.Entry{}).
			Where("session_id = ? AND cluster_key = ? AND blocked = ?", sessionID, clusterKey, false).
			Update("blocked", true)
		if blk.Error != nil {
			return fmt.Errorf("block entries: %w", blk.Error)
		}
		changed = del.RowsAffected > 0 || blk.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("aggregate: remove %s/%s: %w", sessionID, clusterKey, err)
	}
	return changed, nil
}

// Rebuild recomputes the session's summary rows from its non-blocked
// entries. Each cluster's display word comes from its earliest entry.
func Rebuild(db *gorm.DB, sessionID string) (int, error) {
	var rows []models.Summary
	err := db.Transaction(func(tx *gorm.DB) error {
		var entries []models.Entry
		if err := tx.Where("session_id = ? AND blocked = ?", sessionID, false).
			Order("id ASC").Find(&entries).Error; err != nil {
			return fmt.Errorf("load entries: %w", err)
		}

		index := map[string]int{}
		for _, e := range entries {
			if i, ok := index[e.ClusterKey]; ok {
				rows[i].Count++
				continue
			}
			index[e.ClusterKey] = len(rows)
			rows = append(rows, models.Summary{
				SessionID:   sessionID,
				ClusterKey:  e.ClusterKey,
				DisplayWord: e.WordNorm,
				Count:       1,
				Color:       render.Color(e.WordNorm),
			})
		}

		if err := tx.Where("session_id = ?", sessionID).Delete(&models.Summary{}).Error; err != nil {
			return fmt.Errorf("clear summaries: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert summaries: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate: rebuild %s: %w", sessionID, err)
	}
	return len(rows), nil
}
