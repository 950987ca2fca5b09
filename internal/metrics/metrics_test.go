package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestSubmission_Counts(t *testing.T) {
	m := New()
	m.Submission(OutcomeAccepted)
	m.Submission(OutcomeAccepted)
	m.Submission(OutcomeCooldown)

	out := scrape(t, m)
	for _, want := range []string{
		`wordcloud_submissions_total{outcome="accepted"} 2`,
		`wordcloud_submissions_total{outcome="cooldown"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("/metrics output missing %q", want)
		}
	}
}

func TestSubmission_NilReceiver(t *testing.T) {
	var m *Metrics
	m.Submission(OutcomeAccepted) // must not panic
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.FallbackInserts.Inc()
	m.LiveSubscribers.Set(3)

	body := scrape(t, m)
	for _, want := range []string{
		"wordcloud_quota_fallback_total 1",
		"wordcloud_live_subscribers 3",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics output missing %q", want)
		}
	}
}
