package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/wordcloud/internal/aggregate"
	"github.com/zulandar/wordcloud/internal/render"
	"github.com/zulandar/wordcloud/internal/session"
)

// maxTop caps the n query parameter of /top.
const maxTop = 100

func (h *handlers) aggregate(c *gin.Context) {
	id := c.Param("id")
	db := h.db.WithContext(c.Request.Context())
	if _, err := session.Get(db, id); err != nil {
		h.fail(c, err)
		return
	}
	rows, err := aggregate.List(db, id, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "items": viewSummaries(rows)})
}

func (h *handlers) cloud(c *gin.Context) {
	id := c.Param("id")
	db := h.db.WithContext(c.Request.Context())
	if _, err := session.Get(db, id); err != nil {
		h.fail(c, err)
		return
	}
	rows, err := aggregate.List(db, id, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "words": render.Cloud(aggregate.Items(rows))})
}

func (h *handlers) top(c *gin.Context) {
	n := aggregate.DefaultTop
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxTop {
			invalidInput(c, "n must be a number between 1 and 100")
			return
		}
		n = v
	}

	id := c.Param("id")
	db := h.db.WithContext(c.Request.Context())
	if _, err := session.Get(db, id); err != nil {
		h.fail(c, err)
		return
	}
	rows, err := aggregate.Top(db, id, n)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "words": viewSummaries(rows)})
}
