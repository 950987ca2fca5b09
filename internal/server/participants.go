package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/entry"
	"github.com/zulandar/wordcloud/internal/identity"
	"github.com/zulandar/wordcloud/internal/quota"
	"github.com/zulandar/wordcloud/internal/session"
)

// resolveParticipant picks the participant identity from a signed token when
// one is given, otherwise from the raw identifier. It writes the 400
// response itself and reports false when neither is usable.
func (h *handlers) resolveParticipant(c *gin.Context, sessionID, participant, token string) (string, bool) {
	if token = strings.TrimSpace(token); token != "" {
		id, err := h.issuer.Resolve(token, sessionID)
		if err != nil {
			invalidInput(c, "invalid participant token")
			return "", false
		}
		return id, true
	}
	if !identity.ValidID(participant) {
		invalidInput(c, "participant is required")
		return "", false
	}
	return strings.TrimSpace(participant), true
}

func (h *handlers) createParticipant(c *gin.Context) {
	id := c.Param("id")
	if _, err := session.Get(h.db, id); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.issuer.Issue(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      statusOK,
		"participant": p.ID,
		"token":       p.Token,
		"expires_at":  p.ExpiresAt,
	})
}

type submitRequest struct {
	Participant string `json:"participant"`
	Token       string `json:"token"`
	Word        string `json:"word"`
	Surface     string `json:"surface"`
}

type submitResponse struct {
	Status                   string `json:"status"`
	Message                  string `json:"message"`
	Guarded                  bool   `json:"guarded"`
	AttemptsLeft             int    `json:"attempts_left"`
	CooldownRemainingSeconds int64  `json:"cooldown_remaining_seconds"`
}

func (h *handlers) submitEntry(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}
	sessionID := c.Param("id")
	participant, ok := h.resolveParticipant(c, sessionID, req.Participant, req.Token)
	if !ok {
		return
	}

	res, err := h.entries.Submit(c.Request.Context(), entry.SubmitRequest{
		SessionID:     sessionID,
		ParticipantID: participant,
		Word:          req.Word,
		Surface:       req.Surface,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if !res.Accepted {
		code, msg := http.StatusTooManyRequests, "No attempts left"
		switch res.Reason {
		case quota.ReasonCooldown:
			msg = "Please wait for the cooldown to end before submitting again"
		case quota.ReasonSessionNotLive:
			code, msg = http.StatusConflict, "Session is not accepting entries"
		}
		c.JSON(code, rejectedBody{
			Status:                   statusQuotaRejected,
			Reason:                   res.Reason,
			Message:                  msg,
			AttemptsLeft:             res.AttemptsLeft,
			CooldownRemainingSeconds: res.CooldownRemainingSeconds,
		})
		return
	}

	msg := "Word submitted"
	if !res.Guarded {
		msg = "Word submitted (quota system not active)"
	}
	c.JSON(http.StatusCreated, submitResponse{
		Status:                   statusOK,
		Message:                  msg,
		Guarded:                  res.Guarded,
		AttemptsLeft:             res.AttemptsLeft,
		CooldownRemainingSeconds: res.CooldownRemainingSeconds,
	})
}

func (h *handlers) quotaStatus(c *gin.Context) {
	sessionID := c.Param("id")
	participant, ok := h.resolveParticipant(c, sessionID, c.Query("participant"), c.Query("token"))
	if !ok {
		return
	}

	st, err := quota.Status(c.Request.Context(), h.db, sessionID, participant, time.Now())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                     statusOK,
		"attempts_left":              st.AttemptsLeft,
		"cooldown_remaining_seconds": st.CooldownRemainingSeconds,
		"cooldown_until":             st.CooldownUntil,
	})
}

func (h *handlers) entryCount(c *gin.Context) {
	sessionID := c.Param("id")
	participant, ok := h.resolveParticipant(c, sessionID, c.Query("participant"), c.Query("token"))
	if !ok {
		return
	}

	n, err := h.entries.Count(c.Request.Context(), sessionID, participant)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "count": n})
}

func (h *handlers) lastSubmission(c *gin.Context) {
	sessionID := c.Param("id")
	participant, ok := h.resolveParticipant(c, sessionID, c.Query("participant"), c.Query("token"))
	if !ok {
		return
	}

	last, err := h.entries.LastSubmission(c.Request.Context(), sessionID, participant)
	if err != nil {
		h.fail(c, err)
		return
	}
	var formatted *string
	if last != nil {
		s := last.UTC().Format(time.RFC3339)
		formatted = &s
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "last_submission": formatted})
}
