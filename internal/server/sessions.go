package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/aggregate"
	"github.com/zulandar/wordcloud/internal/models"
	"github.com/zulandar/wordcloud/internal/quota"
	"github.com/zulandar/wordcloud/internal/session"
	"github.com/zulandar/wordcloud/internal/text"
)

type createSessionRequest struct {
	Question           string `json:"question"`
	Description        string `json:"description"`
	BackgroundImageURL string `json:"background_image_url"`
	Theme              string `json:"theme"`
	MaxEntriesPerUser  int    `json:"max_entries_per_user"`
	CooldownMinutes    int    `json:"cooldown_minutes"`
	TimeLimitSec       int    `json:"time_limit_sec"`
	GroupingEnabled    bool   `json:"grouping_enabled"`
	CreatedBy          string `json:"created_by"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}

	s, err := session.Create(h.db, session.CreateOpts{
		Question:           req.Question,
		Description:        req.Description,
		BackgroundImageURL: req.BackgroundImageURL,
		Theme:              req.Theme,
		MaxEntriesPerUser:  req.MaxEntriesPerUser,
		CooldownMinutes:    req.CooldownMinutes,
		TimeLimitSec:       req.TimeLimitSec,
		GroupingEnabled:    req.GroupingEnabled,
		CreatedBy:          req.CreatedBy,
	}, h.defaults)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": statusOK, "session_id": s.ID})
}

func (h *handlers) listSessions(c *gin.Context) {
	list, err := session.List(h.db.WithContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]overviewView, len(list))
	for i := range list {
		out[i] = overviewView{
			sessionView:      viewSession(&list[i].Session),
			ParticipantCount: list[i].ParticipantCount,
			WordCount:        list[i].WordCount,
			TotalEntries:     list[i].TotalEntries,
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "sessions": out})
}

func (h *handlers) getSession(c *gin.Context) {
	s, err := session.Get(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "session": viewSession(s)})
}

type updateSessionRequest struct {
	Question           *string `json:"question"`
	Description        *string `json:"description"`
	BackgroundImageURL *string `json:"background_image_url"`
	Theme              *string `json:"theme"`
	MaxEntriesPerUser  *int    `json:"max_entries_per_user"`
	CooldownMinutes    *int    `json:"cooldown_minutes"`
	TimeLimitSec       *int    `json:"time_limit_sec"`
	GroupingEnabled    *bool   `json:"grouping_enabled"`
}

func (h *handlers) updateSession(c *gin.Context) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}

	s, err := session.Update(h.db, c.Param("id"), session.UpdateOpts{
		Question:           req.Question,
		Description:        req.Description,
		BackgroundImageURL: req.BackgroundImageURL,
		Theme:              req.Theme,
		MaxEntriesPerUser:  req.MaxEntriesPerUser,
		CooldownMinutes:    req.CooldownMinutes,
		TimeLimitSec:       req.TimeLimitSec,
		GroupingEnabled:    req.GroupingEnabled,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.broker.Publish(s.ID)
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "session": viewSession(s)})
}

func (h *handlers) setStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}

	s, err := session.SetStatus(h.db, c.Param("id"), strings.TrimSpace(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.broker.Publish(s.ID)
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "session": viewSession(s)})
}

func (h *handlers) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := session.Delete(h.db, id); err != nil {
		h.fail(c, err)
		return
	}
	h.broker.Publish(id)
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "deleted": true})
}

func (h *handlers) resetCooldown(c *gin.Context) {
	id := c.Param("id")
	if _, err := session.Get(h.db, id); err != nil {
		h.fail(c, err)
		return
	}
	n, err := quota.ResetSession(h.db, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "reset": n})
}

func (h *handlers) removeAggregateEntry(c *gin.Context) {
	var req struct {
		ClusterKey string `json:"cluster_key"`
		Word       string `json:"word"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}
	key := strings.TrimSpace(req.ClusterKey)
	if key == "" && strings.TrimSpace(req.Word) != "" {
		key = text.ClusterKey(req.Word)
	}
	if key == "" {
		invalidInput(c, "cluster_key is required")
		return
	}

	id := c.Param("id")
	if _, err := session.Get(h.db, id); err != nil {
		h.fail(c, err)
		return
	}
	changed, err := aggregate.Remove(h.db, id, key)
	if err != nil {
		h.fail(c, err)
		return
	}
	if changed {
		h.broker.Publish(id)
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "deleted": changed})
}

type orderView struct {
	SessionID  string `json:"session_id"`
	OrderIndex int    `json:"order_index"`
}

func viewOrder(order []models.SessionOrder) []orderView {
	out := make([]orderView, len(order))
	for i, o := range order {
		out[i] = orderView{SessionID: o.SessionID, OrderIndex: o.OrderIndex}
	}
	return out
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := session.Order(h.db.WithContext(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "order": viewOrder(order)})
}

func (h *handlers) replaceOrder(c *gin.Context) {
	var req struct {
		SessionIDs []string `json:"session_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionIDs == nil {
		invalidInput(c, "session_ids must be an array")
		return
	}

	order, err := session.ReplaceOrder(h.db, req.SessionIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "order": viewOrder(order)})
}
