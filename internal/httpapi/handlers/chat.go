package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
	"github.com/ha583/cuddly-chainsaw/internal/chat"
	"github.com/ha583/cuddly-chainsaw/internal/common"
)

// orchestratorFor resolves the per-session orchestrator, writing the error
// response itself when the session id is bad or not owned by uid.
func (h *Handler) orchestratorFor(c *gin.Context, uid uint64, sessionID string) (*chat.Orchestrator, bool) {
	orch, err := h.ChatMgr.ForSession(c.Request.Context(), uid, sessionID)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidIdentifier) {
			fail(c, http.StatusBadRequest, 10002, "invalid session id")
			return nil, false
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, 40004, "session not found")
			return nil, false
		}
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return nil, false
	}
	return orch, true
}

func (h *Handler) SendChatMessageStream(c *gin.Context) {
	type reqBody struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message" binding:"required"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
		WebSearch bool   `json:"web_search"`
	}

	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, 10001, "message must not be empty")
		return
	}

	// Resolve the orchestrator before committing to SSE so lookup failures
	// come back as plain JSON.
	var (
		orch  *chat.Orchestrator
		draft bool
	)
	if strings.TrimSpace(req.SessionID) == "" {
		var err error
		orch, err = h.ChatMgr.NewDraft(uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
		draft = true
	} else {
		var found bool
		orch, found = h.orchestratorFor(c, uid, req.SessionID)
		if !found {
			return
		}
	}

	if st := orch.State(); st == chat.StateSubmitted || st == chat.StateStreaming {
		fail(c, http.StatusConflict, 40901, "generation already in progress")
		return
	}

	if req.Provider != "" && req.Provider != orch.Selection().ProviderID {
		if _, err := orch.SwitchProvider(req.Provider); err != nil {
			fail(c, http.StatusBadRequest, 10004, "unknown provider")
			return
		}
	}
	if req.Model != "" {
		orch.RecordModelSet(h.modelsFor(c.Request.Context(), orch.Selection().ProviderID))
		if _, err := orch.SetModel(req.Model); err != nil {
			fail(c, http.StatusBadRequest, 10005, "unknown model")
			return
		}
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx

	// avoid gin writing a JSON response later
	c.Status(http.StatusOK)

	ctx := c.Request.Context()

	chunks := make(chan string, 16)
	result := make(chan *chat.Message, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		msg, err := orch.SendUserMessage(ctx, req.Message, req.WebSearch, func(delta, _ string) {
			select {
			case chunks <- delta:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errs <- err
			return
		}
		result <- msg
	}()

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	flusher, flusherOK := c.Writer.(http.Flusher)
	if !flusherOK {
		// can't stream
		fmt.Fprintf(c.Writer, "event: error\ndata: flusher not supported\n\n")
		return
	}

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			// last-resort: send a simple error that won't break SSE framing
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	for chunks != nil {
		select {
		case d, open := <-chunks:
			if !open {
				chunks = nil
				continue
			}
			writeJSON("chunk", gin.H{
				"type":  "chunk",
				"delta": d,
			})

		case <-ticker.C:
			writeJSON("ping", gin.H{
				"type": "ping",
				"ts":   time.Now().Unix(),
			})

		case <-ctx.Done():
			return
		}
	}

	select {
	case err := <-errs:
		writeJSON("error", gin.H{
			"type":    "error",
			"message": streamErrorMessage(err),
		})
		return

	case msg := <-result:
		if draft {
			h.ChatMgr.Bind(orch)
		}
		done := gin.H{
			"type":       "done",
			"session_id": orch.SessionID(),
			"state":      orch.State(),
		}
		// a cancel before the first delta finalizes without an assistant
		// message
		if msg != nil {
			done["message_id"] = msg.ID
		}
		writeJSON("done", done)
		return

	case <-ctx.Done():
		return
	}
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrGenerationBusy):
		return "generation already in progress"
	case errors.Is(err, chat.ErrInvalidInput):
		return "message must not be empty"
	case errors.Is(err, ai.ErrProviderUnavailable):
		return "provider unavailable"
	default:
		return err.Error()
	}
}

func (h *Handler) StopChatGeneration(c *gin.Context) {
	type reqBody struct {
		SessionID string `json:"session_id" binding:"required"`
	}

	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	orch, found := h.orchestratorFor(c, uid, req.SessionID)
	if !found {
		return
	}

	orch.StopGeneration()
	ok(c, gin.H{
		"session_id": req.SessionID,
		"state":      orch.State(),
	})
}

func (h *Handler) UpdateChatSelection(c *gin.Context) {
	type reqBody struct {
		SessionID string `json:"session_id" binding:"required"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
	}

	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	orch, found := h.orchestratorFor(c, uid, req.SessionID)
	if !found {
		return
	}

	if req.Provider != "" {
		if _, err := orch.SwitchProvider(req.Provider); err != nil {
			fail(c, http.StatusBadRequest, 10004, "unknown provider")
			return
		}
	}
	if req.Model != "" {
		orch.RecordModelSet(h.modelsFor(c.Request.Context(), orch.Selection().ProviderID))
		if _, err := orch.SetModel(req.Model); err != nil {
			fail(c, http.StatusBadRequest, 10005, "unknown model")
			return
		}
	}

	ok(c, gin.H{"selection": orch.Selection()})
}

func (h *Handler) SendChatMessageAsync(c *gin.Context) {
	type reqBody struct {
		SessionID string `json:"session_id" binding:"required"`
		Message   string `json:"message" binding:"required"`
		Provider  string `json:"provider"`
		Model     string `json:"model"`
	}
	var req reqBody

	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// Resolve the selection here so a stale cross-provider model id is
	// rejected before a job carrying it is ever enqueued.
	providerID := req.Provider
	if providerID == "" {
		providerID = h.Cfg.DefaultProvider
	}
	if !h.Registry.Known(providerID) {
		fail(c, http.StatusBadRequest, 10004, "unknown provider")
		return
	}
	modelID := req.Model
	if modelID == "" {
		modelID = ai.ResolveDefaultModel(providerID)
	} else {
		known := false
		for _, m := range h.modelsFor(c.Request.Context(), providerID) {
			if m.ID == modelID {
				known = true
				break
			}
		}
		if !known {
			fail(c, http.StatusBadRequest, 10005, "unknown model")
			return
		}
	}

	if h.Rabbit == nil {
		fail(c, http.StatusServiceUnavailable, 50301, "async generation unavailable")
		return
	}

	// read idempotency key
	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}

	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	sess, found := h.ownedSession(c, uid, req.SessionID)
	if !found {
		return
	}

	// Insert the user message up front so the transcript reflects the
	// request even while the job is queued.
	userMsg := &chat.Message{SessionID: sess.ID, Role: chat.RoleUser, Content: req.Message}
	if err := h.Repo.AppendMessage(c.Request.Context(), userMsg); err != nil {
		log.Printf("[SendChatMessageAsync] AppendMessage failed uid=%d session_id=%s err=%v", uid, sess.ID, err)
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		log.Printf("[SendChatMessageAsync] NewULID failed uid=%d session_id=%s err=%v", uid, sess.ID, err)
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	// Create job row (idempotent if key is provided)
	j := &chat.Job{
		ID:             jobID,
		UserID:         uid,
		SessionID:      sess.ID,
		Prompt:         req.Message,
		Provider:       providerID,
		Model:          modelID,
		IdempotencyKey: idempoKeyPtr,
		Status:         chat.JobQueued,
	}

	created := true
	if idempoKeyPtr == nil {
		if err := h.Repo.CreateJob(c.Request.Context(), j); err != nil {
			log.Printf("[SendChatMessageAsync] CreateJob failed uid=%d session_id=%s job_id=%s err=%v", uid, sess.ID, jobID, err)
			fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
	} else {
		var job *chat.Job
		job, created, err = h.Repo.CreateJobOrGetExisting(c.Request.Context(), j)
		if err != nil {
			log.Printf("[SendChatMessageAsync] CreateJobOrGetExisting failed uid=%d session_id=%s job_id=%s key=%s err=%v", uid, sess.ID, jobID, idempoKey, err)
			fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
		// If existing, use its ID for response/publish decision
		j = job
	}

	// Enqueue only when a new job was created
	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), j.ID); err != nil {
			log.Printf("[SendChatMessageAsync] PublishJob failed uid=%d session_id=%s job_id=%s err=%v", uid, sess.ID, j.ID, err)
			fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}

	ok(c, gin.H{"job_id": j.ID})
}

func (h *Handler) GetChatJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}
	jobID := c.Param("job_id")
	if jobID == "" {
		fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.Repo.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	if j.UserID != uid {
		// hide existence
		fail(c, http.StatusNotFound, 40402, "job not found")
		return
	}

	ok(c, gin.H{
		"job": gin.H{
			"id":                j.ID,
			"session_id":        j.SessionID,
			"status":            j.Status,
			"result_message_id": j.ResultMessageID,
			"error":             j.Error,
			"created_at":        j.CreatedAt,
			"updated_at":        j.UpdatedAt,
		},
	})
}
