package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/quota"
	"github.com/zulandar/wordcloud/internal/session"
	"github.com/zulandar/wordcloud/internal/text"
	"go.uber.org/zap"
)

// Response discriminators. Every JSON body carries one in "status".
const (
	statusOK            = "ok"
	statusInvalidInput  = "invalid_input"
	statusQuotaRejected = "quota_rejected"
	statusNotFound      = "not_found"
	statusError         = "error"
)

// errorBody is the shape of invalid_input, not_found and error responses.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// rejectedBody is the shape of quota_rejected responses.
type rejectedBody struct {
	Status                   string `json:"status"`
	Reason                   string `json:"reason"`
	Message                  string `json:"message"`
	AttemptsLeft             int    `json:"attempts_left"`
	CooldownRemainingSeconds int64  `json:"cooldown_remaining_seconds"`
}

// sessionView is the JSON rendering of a session.
type sessionView struct {
	ID                 string     `json:"id"`
	Question           string     `json:"question"`
	Description        *string    `json:"description"`
	BackgroundImageURL *string    `json:"background_image_url"`
	Theme              string     `json:"theme"`
	MaxEntriesPerUser  int        `json:"max_entries_per_user"`
	CooldownMinutes    int        `json:"cooldown_minutes"`
	TimeLimitSec       *int       `json:"time_limit_sec"`
	GroupingEnabled    bool       `json:"grouping_enabled"`
	Status             string     `json:"status"`
	CreatedBy          *string    `json:"created_by"`
	LiveAt             *time.Time `json:"live_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func viewSession(s *models.Session) sessionView {
	return sessionView{
		ID:                 s.ID,
		Question:           s.Question,
		Description:        s.Description,
		BackgroundImageURL: s.BackgroundImageURL,
		Theme:              s.Theme,
		MaxEntriesPerUser:  s.MaxEntriesPerUser,
		CooldownMinutes:    s.CooldownMinutes,
		TimeLimitSec:       s.TimeLimitSec,
		GroupingEnabled:    s.GroupingEnabled,
		Status:             s.Status,
		CreatedBy:          s.CreatedBy,
		LiveAt:             s.LiveAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// overviewView adds participation counts to a session.
type overviewView struct {
	sessionView
	ParticipantCount int64 `json:"participant_count"`
	WordCount        int64 `json:"word_count"`
	TotalEntries     int64 `json:"total_entries"`
}

// summaryView is one aggregate row.
type summaryView struct {
	ClusterKey  string    `json:"cluster_key"`
	DisplayWord string    `json:"display_word"`
	Count       int       `json:"count"`
	Color       string    `json:"color"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewSummaries(rows []models.Summary) []summaryView {
	out := make([]summaryView, len(rows))
	for i, r := range rows {
		out[i] = summaryView{
			ClusterKey:  r.ClusterKey,
			DisplayWord: r.DisplayWord,
			Count:       r.Count,
			Color:       r.Color,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return out
}

func invalidInput(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Status: statusInvalidInput, Message: msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorBody{Status: statusNotFound, Message: msg})
}

// fail maps err to a tagged response. Unrecognised errors are logged and
// reported without detail.
func (h *handlers) fail(c *gin.Context, err error) {
	var sve *session.ValidationError
	var tve *text.ValidationError
	switch {
	case errors.As(err, &tve):
		invalidInput(c, tve.Reason)
	case errors.As(err, &sve):
		invalidInput(c, sve.Reason)
	case errors.Is(err, session.ErrNotFound), errors.Is(err, quota.ErrSessionNotFound):
		notFound(c, "session not found")
	case errors.Is(err, quota.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, errorBody{Status: statusError, Message: "submissions are busy, please try again"})
	case errors.Is(err, quota.ErrUnavailable):
		h.log.Error("quota gate unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorBody{Status: statusError, Message: "submissions are temporarily unavailable"})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{Status: statusError, Message: "internal server error"})
	}
}
