package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// allowedImageTypes are the MIME types accepted as session backgrounds,
// judged by content rather than the client's claim.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// uploadImage turns a multipart "image" field into a data URI. Nothing is
// stored server-side; the presenter saves the URI on the session.
func (h *handlers) uploadImage(c *gin.Context) {
	limit := h.maxUpload
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+(1<<20))

	fh, err := c.FormFile("image")
	if err != nil {
		invalidInput(c, "No image file provided")
		return
	}
	if fh.Size > limit {
		invalidInput(c, fmt.Sprintf("File too large. Please upload an image smaller than %dMB.", limit>>20))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("server: open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		h.fail(c, fmt.Errorf("server: read upload: %w", err))
		return
	}
	if int64(len(data)) > limit {
		invalidInput(c, fmt.Sprintf("File too large. Please upload an image smaller than %dMB.", limit>>20))
		return
	}

	mtype := mimetype.Detect(data).String()
	if !allowedImageTypes[mtype] {
		invalidInput(c, "Invalid file type. Please upload a JPEG, PNG, GIF, or WebP image.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   statusOK,
		"url":      "data:" + mtype + ";base64," + base64.StdEncoding.EncodeToString(data),
		"filename": fh.Filename,
		"size":     len(data),
		"type":     mtype,
	})
}
