package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/requestdata"
	"github.com/fablelab/fablelab-backend/internal/services"
)

type SessionHandler struct {
	log      *logger.Logger
	sessions services.SessionManager
}

func NewSessionHandler(log *logger.Logger, sessions services.SessionManager) *SessionHandler {
	return &SessionHandler{
		log:      log.With("handler", "SessionHandler"),
		sessions: sessions,
	}
}

// POST /api/session/signin
// Run migrate-then-hydrate for the token's identity and return the hydrated
// state. Safe to call again; an existing session is returned as-is.
func (h *SessionHandler) SignIn(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{
		"loading":      sess.Controller.Loading(),
		"progress":     sess.Progress.Snapshot(),
		"gamification": sess.Gamification.Snapshot(),
		"settings": gin.H{
			"provider":           sess.Settings.Provider(),
			"availableProviders": sess.Settings.AvailableProviders(),
		},
		"theme": sess.Theme.Theme(),
	})
}

// POST /api/session/signout
// Reset the identity's stores and drop the session.
func (h *SessionHandler) SignOut(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	h.sessions.Remove(rd.UserID)
	c.Status(http.StatusNoContent)
}
