package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/chat"
)

type createSessionReq struct {
	Title string `json:"title"`
}

func (h *Handler) CreateChatSession(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createSessionReq
	_ = c.ShouldBindJSON(&req) // allow empty {}
	if req.Title == "" {
		req.Title = "New Chat"
	}

	sess := &chat.Session{UserID: uid, Title: req.Title}
	if err := h.Repo.CreateSession(c.Request.Context(), sess); err != nil {
		fail(c, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}

	ok(c, gin.H{"session": sess})
}

func (h *Handler) ListChatSessions(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sessions, err := h.Repo.ListSessions(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50002, "failed to list sessions")
		return
	}
	ok(c, gin.H{"sessions": sessions})
}

// ownedSession loads a session and enforces ownership, hiding existence from
// other users.
func (h *Handler) ownedSession(c *gin.Context, uid uint64, sessionID string) (*chat.Session, bool) {
	sess, err := h.Repo.GetSession(c.Request.Context(), sessionID)
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
	if sess.UserID != uid {
		fail(c, http.StatusNotFound, 40004, "session not found")
		return nil, false
	}
	return sess, true
}

func (h *Handler) GetChatSession(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sess, found := h.ownedSession(c, uid, c.Param("session_id"))
	if !found {
		return
	}

	msgs, err := h.Repo.ListMessages(c.Request.Context(), sess.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}
	ok(c, gin.H{"session": sess, "messages": msgs})
}

type updateTitleReq struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handler) UpdateChatSessionTitle(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateTitleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, found := h.ownedSession(c, uid, c.Param("session_id"))
	if !found {
		return
	}

	if err := h.Repo.UpdateSessionTitle(c.Request.Context(), sess.ID, req.Title); err != nil {
		fail(c, http.StatusInternalServerError, 50003, "failed to update session")
		return
	}
	ok(c, gin.H{"session_id": sess.ID, "title": req.Title})
}

type updatePinnedReq struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

func (h *Handler) UpdateChatSessionPinned(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updatePinnedReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Pinned == nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	sess, found := h.ownedSession(c, uid, c.Param("session_id"))
	if !found {
		return
	}

	if err := h.Repo.UpdateSessionPinned(c.Request.Context(), sess.ID, *req.Pinned); err != nil {
		fail(c, http.StatusInternalServerError, 50003, "failed to update session")
		return
	}
	ok(c, gin.H{"session_id": sess.ID, "pinned": *req.Pinned})
}

func (h *Handler) DeleteChatSession(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sess, found := h.ownedSession(c, uid, c.Param("session_id"))
	if !found {
		return
	}

	if err := h.Repo.DeleteSession(c.Request.Context(), sess.ID); err != nil {
		fail(c, http.StatusInternalServerError, 50004, "failed to delete session")
		return
	}
	h.ChatMgr.Remove(uid, sess.ID)
	ok(c, gin.H{"session_id": sess.ID})
}

func (h *Handler) ListChatMessages(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	sess, found := h.ownedSession(c, uid, c.Param("session_id"))
	if !found {
		return
	}

	msgs, err := h.Repo.ListMessages(c.Request.Context(), sess.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, 50002, "failed to list messages")
		return
	}
	ok(c, gin.H{"messages": msgs})
}
