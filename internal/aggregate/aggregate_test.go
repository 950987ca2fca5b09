package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zulandar/wordcloud/internal/db/dbtest"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/render"
	"gorm.io/gorm"
)

func addEntry(t *testing.T, db *gorm.DB, sessionID, norm, cluster string) {
	t.Helper()
	e := models.Entry{
		SessionID:     sessionID,
		ParticipantID: "anon_a",
		WordRaw:       norm,
		WordNorm:      norm,
		ClusterKey:    cluster,
		Guarded:       true,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		return Add(tx, &e)
	})
	if err != nil {
		t.Fatalf("add %q: %v", norm, err)
	}
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, id := range []string{"s1", "s2"} {
		if err := db.Create(&models.Session{ID: id, Question: "q", MaxEntriesPerUser: 3, CooldownMinutes: 24, Status: models.StatusLive}).Error; err != nil {
			t.Fatal(err)
		}
	}
}

type row struct {
	Key, Word string
	Count     int
}

func rowsOf(sums []models.Summary) []row {
	out := make([]row, len(sums))
	for i, s := range sums {
		out[i] = row{s.ClusterKey, s.DisplayWord, s.Count}
	}
	return out
}

func TestAdd_UpsertsCount(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)

	addEntry(t, db, "s1", "cats", "cat")
	addEntry(t, db, "s1", "cat", "cat")
	addEntry(t, db, "s1", "dog", "dog")
	addEntry(t, db, "s2", "cat", "cat")

	got, err := List(db, "s1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []row{{"cat", "cats", 2}, {"dog", "dog", 1}}
	if diff := cmp.Diff(want, rowsOf(got)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if got[0].Color != render.Color("cats") {
		t.Errorf("Color = %q, want %q", got[0].Color, render.Color("cats"))
	}
}

func TestTop(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)

	for word, n := range map[string]int{"a": 5, "b": 4, "c": 3, "d": 2, "e": 1} {
		for i := 0; i < n; i++ {
			addEntry(t, db, "s1", word, word)
		}
	}

	top, err := Top(db, "s1", 0)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	want := []row{{"a", "a", 5}, {"b", "b", 4}, {"c", "c", 3}}
	if diff := cmp.Diff(want, rowsOf(top)); diff != "" {
		t.Errorf("Top mismatch (-want +got):\n%s", diff)
	}

	top, _ = Top(db, "s1", 1)
	if len(top) != 1 || top[0].ClusterKey != "a" {
		t.Errorf("Top(1) = %v", rowsOf(top))
	}
}

func TestRemove_BlocksEntries(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	addEntry(t, db, "s1", "rude", "rude")
	addEntry(t, db, "s1", "rude", "rude")
	addEntry(t, db, "s1", "kind", "kind")
	addEntry(t, db, "s2", "rude", "rude")

	changed, err := Remove(db, "s1", "rude")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !changed {
		t.Error("Remove reported no change")
	}

	rows, _ := List(db, "s1", 0)
	if diff := cmp.Diff([]row{{"kind", "kind", 1}}, rowsOf(rows)); diff != "" {
		t.Errorf("after Remove (-want +got):\n%s", diff)
	}

	var blocked int64
	db.Model(&models.Entry{}).Where("session_id = ? AND blocked = ?", "s1", true).Count(&blocked)
	if blocked != 2 {
		t.Errorf("blocked entries = %d, want 2", blocked)
	}
	db.Model(&models.Entry{}).Where("session_id = ? AND blocked = ?", "s2", true).Count(&blocked)
	if blocked != 0 {
		t.Errorf("other session blocked entries = %d, want 0", blocked)
	}

	changed, err = Remove(db, "s1", "rude")
	if err != nil || changed {
		t.Errorf("second Remove = %v, %v; want no change", changed, err)
	}
}

func TestRebuild(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	addEntry(t, db, "s1", "stories", "story")
	addEntry(t, db, "s1", "story", "story")
	addEntry(t, db, "s1", "bad", "bad")
	addEntry(t, db, "s1", "good", "good")
	if _, err := Remove(db, "s1", "bad"); err != nil {
		t.Fatal(err)
	}

	// Drift the stored counts.
	db.Model(&models.Summary{}).Where("session_id = ?", "s1").Update("count", 99)
	db.Create(&models.Summary{SessionID: "s1", ClusterKey: "ghost", DisplayWord: "ghost", Count: 7})

	n, err := Rebuild(db, "s1")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n != 2 {
		t.Errorf("Rebuild rows = %d, want 2", n)
	}

	rows, _ := List(db, "s1", 0)
	want := []row{{"story", "stories", 2}, {"good", "good", 1}}
	if diff := cmp.Diff(want, rowsOf(rows)); diff != "" {
		t.Errorf("after Rebuild (-want +got):\n%s", diff)
	}
}

func TestRebuild_Empty(t *testing.T) {
	db := dbtest.Open(t)
	seed(t, db)
	db.Create(&models.Summary{SessionID: "s1", ClusterKey: "ghost", DisplayWord: "ghost", Count: 1})

	n, err := Rebuild(db, "s1")
	if err != nil || n != 0 {
		t.Fatalf("Rebuild = %d, %v; want 0, nil", n, err)
	}
	rows, _ := List(db, "s1", 0)
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rowsOf(rows))
	}
}

func TestItems(t *testing.T) {
	items := Items([]models.Summary{{DisplayWord: "tea", Count: 3, Color: "#FFFFFF"}})
	want := []render.Item{{Text: "tea", Count: 3, Color: "#FFFFFF"}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
}
