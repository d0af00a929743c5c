package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ha583/cuddly-chainsaw/internal/chat"
)

const maxUploadBytes = 10 << 20

const (
	documentReadyNote = "Document processed. You can now ask questions about the document."
	imageReadyNote    = "Image analyzed. You can now ask questions about the image."
)

// UploadDocument accepts a multipart file, extracts its text and analysis,
// and attaches the result to the target session's context.
func (h *Handler) UploadDocument(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sessionID := c.PostForm("session_id")
	orch, found := h.orchestratorFor(c, uid, sessionID)
	if !found {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, 10006, "file required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, 10007, "file too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if len(data) > maxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, 10007, "file too large")
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	processed, err := h.Docs.Extract(c.Request.Context(), fileHeader.Filename, mimeType, data)
	if err != nil {
		log.Printf("[UploadDocument] extract failed uid=%d session_id=%s file=%s err=%v", uid, sessionID, fileHeader.Filename, err)
		fail(c, http.StatusUnprocessableEntity, 42201, "document processing failed")
		return
	}

	var note *chat.Message
	if processed.Vision {
		note = orch.AttachAnalysis(processed.Analysis, "", imageReadyNote)
	} else {
		note = orch.AttachAnalysis("", processed.Analysis, documentReadyNote)
	}

	ok(c, gin.H{
		"message":  note,
		"metadata": processed.Metadata,
	})
}
