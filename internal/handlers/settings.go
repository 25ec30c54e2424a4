package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/requestdata"
	"github.com/fablelab/fablelab-backend/internal/services"
)

type SettingsHandler struct {
	log      *logger.Logger
	sessions services.SessionManager
}

func NewSettingsHandler(log *logger.Logger, sessions services.SessionManager) *SettingsHandler {
	return &SettingsHandler{
		log:      log.With("handler", "SettingsHandler"),
		sessions: sessions,
	}
}

// GET /api/settings
// Current provider selection plus the session's provider catalog.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{
		"provider":           sess.Settings.Provider(),
		"availableProviders": sess.Settings.AvailableProviders(),
	})
}

// PUT /api/settings/provider
// Select the AI provider. Must be in the session catalog.
func (h *SettingsHandler) SetProvider(c *gin.Context) {
	var req struct {
		Provider string `json:"provider" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)

	known := false
	for _, p := range sess.Settings.AvailableProviders() {
		if p.Name == req.Provider {
			known = true
			break
		}
	}
	if !known {
		RespondError(c, http.StatusBadRequest, "unknown_provider", errors.New("provider not in catalog"))
		return
	}
	sess.Settings.SetProvider(req.Provider)
	RespondOK(c, gin.H{"provider": sess.Settings.Provider()})
}
