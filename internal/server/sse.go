package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/aggregate"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/session"
	"go.uber.org/zap"
)

const heartbeatInterval = 15 * time.Second

// aggregateEvent is the payload of an "aggregate" SSE event.
type aggregateEvent struct {
	SessionID     string        `json:"session_id"`
	SessionStatus string        `json:"session_status"`
	Items         []summaryView `json:"items"`
}

// events streams the session's aggregate. Every broker notification
// triggers a fresh read, so the stream always carries complete state.
func (h *handlers) events(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if _, err := session.Get(h.db.WithContext(ctx), id); err != nil {
		h.fail(c, err)
		return
	}

	sub := h.broker.Subscribe(id)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected", "session_id": id})
	if !h.sendAggregate(c, id) {
		return
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-sub.C:
			if !h.sendAggregate(c, id) {
				return
			}
		}
	}
}

// sendAggregate re-reads the session and its aggregate and writes them as
// one event. It reports false once the session is gone, after telling the
// client with a "deleted" event.
func (h *handlers) sendAggregate(c *gin.Context, id string) bool {
	db := h.db.WithContext(c.Request.Context())
	s, err := session.Get(db, id)
	if errors.Is(err, session.ErrNotFound) {
		writeSSE(c.Writer, "deleted", map[string]string{"session_id": id})
		c.Writer.Flush()
		return false
	}
	var rows []models.Summary
	if err == nil {
		rows, err = aggregate.List(db, id, 0)
	}
	if err != nil {
		h.log.Warn("refetch aggregate for stream", zap.String("session", id), zap.Error(err))
		return true
	}
	writeSSE(c.Writer, "aggregate", aggregateEvent{
		SessionID:     id,
		SessionStatus: s.Status,
		Items:         viewSummaries(rows),
	})
	c.Writer.Flush()
	return true
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
