package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ha583/cuddly-chainsaw/internal/auth"
)

type loginReq struct {
	UserID   uint64 `json:"user_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues a bearer token for the deployment operator. The accepted
// password hash comes from configuration; when it is unset the endpoint is
// disabled.
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if h.Cfg.AuthPasswordHash == "" {
		fail(c, http.StatusServiceUnavailable, 50302, "login disabled")
		return
	}

	if !auth.CheckPassword(h.Cfg.AuthPasswordHash, req.Password) {
		fail(c, http.StatusUnauthorized, 40102, "invalid credentials")
		return
	}

	token, err := auth.MakeToken(h.Cfg.JWTSecret, req.UserID, 24*time.Hour)
	if err != nil {
		fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	ok(c, gin.H{
		"user_id": req.UserID,
		"token":   token,
	})
}
