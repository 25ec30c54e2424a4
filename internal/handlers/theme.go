package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/requestdata"
	"github.com/fablelab/fablelab-backend/internal/services"
	"github.com/fablelab/fablelab-backend/internal/types"
)

type ThemeHandler struct {
	log      *logger.Logger
	sessions services.SessionManager
}

func NewThemeHandler(log *logger.Logger, sessions services.SessionManager) *ThemeHandler {
	return &ThemeHandler{
		log:      log.With("handler", "ThemeHandler"),
		sessions: sessions,
	}
}

// GET /api/theme
func (h *ThemeHandler) GetTheme(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{"theme": sess.Theme.Theme()})
}

// PUT /api/theme
// Set the theme explicitly.
func (h *ThemeHandler) SetTheme(c *gin.Context) {
	var req struct {
		Theme string `json:"theme" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Theme != types.ThemeDark && req.Theme != types.ThemeLight {
		RespondError(c, http.StatusBadRequest, "unknown_theme", errors.New("theme must be dark or light"))
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Theme.SetTheme(req.Theme)
	RespondOK(c, gin.H{"theme": sess.Theme.Theme()})
}

// POST /api/theme/toggle
func (h *ThemeHandler) ToggleTheme(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Theme.ToggleTheme()
	RespondOK(c, gin.H{"theme": sess.Theme.Theme()})
}
