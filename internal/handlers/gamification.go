package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/badges"
	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/requestdata"
	"github.com/fablelab/fablelab-backend/internal/services"
)

type GamificationHandler struct {
	log      *logger.Logger
	sessions services.SessionManager
}

func NewGamificationHandler(log *logger.Logger, sessions services.SessionManager) *GamificationHandler {
	return &GamificationHandler{
		log:      log.With("handler", "GamificationHandler"),
		sessions: sessions,
	}
}

// GET /api/gamification
// Snapshot plus the transient recent-XP/recent-badge acknowledgments.
func (h *GamificationHandler) GetGamification(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{
		"gamification":        sess.Gamification.Snapshot(),
		"recentXPGain":        sess.Gamification.RecentXPGain(),
		"recentBadge":         sess.Gamification.RecentBadge(),
		"progressWithinLevel": sess.Gamification.ProgressWithinLevel(),
	})
}

// POST /api/gamification/xp
// Award XP from a named source.
func (h *GamificationHandler) AddXP(c *gin.Context) {
	var req struct {
		Amount int    `json:"amount" binding:"required"`
		Source string `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Gamification.AddXP(req.Amount, req.Source)
	RespondOK(c, gin.H{"gamification": sess.Gamification.Snapshot()})
}

// POST /api/gamification/streak
// Record today's visit.
func (h *GamificationHandler) CheckStreak(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Gamification.CheckStreak()
	RespondOK(c, gin.H{"gamification": sess.Gamification.Snapshot()})
}

// POST /api/gamification/badges/:id
// Unlock a badge by ID. Idempotent; unknown IDs are rejected.
func (h *GamificationHandler) UnlockBadge(c *gin.Context) {
	badgeID := c.Param("id")
	if _, ok := badges.ByID(badgeID); !ok {
		RespondError(c, http.StatusNotFound, "unknown_badge", nil)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Gamification.UnlockBadge(badgeID)
	RespondOK(c, gin.H{"gamification": sess.Gamification.Snapshot()})
}

// POST /api/gamification/badges/evaluate
// Run the rule table against current facts and unlock anything new.
func (h *GamificationHandler) EvaluateBadges(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)

	progress := sess.Progress.Snapshot()
	gamif := sess.Gamification.Snapshot()
	perfect := 0
	for _, score := range progress.QuizScores {
		if score.Total > 0 && score.Score == score.Total {
			perfect++
		}
	}
	facts := badges.Facts{
		CompletedLessons:   len(progress.CompletedLessons),
		SubmittedExercises: len(progress.SubmittedExercises),
		PerfectQuizzes:     perfect,
		Streak:             gamif.Streak,
		XP:                 gamif.XP,
		Level:              gamif.Level,
	}

	unlocked := []string{}
	for _, id := range badges.Evaluate(facts) {
		if sess.Gamification.HasBadge(id) {
			continue
		}
		sess.Gamification.UnlockBadge(id)
		unlocked = append(unlocked, id)
	}
	RespondOK(c, gin.H{
		"newBadges":    unlocked,
		"gamification": sess.Gamification.Snapshot(),
	})
}

// DELETE /api/gamification/recent-xp
// Acknowledge the recent-XP toast.
func (h *GamificationHandler) ClearRecentXP(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Gamification.ClearRecentXP()
	c.Status(http.StatusNoContent)
}

// DELETE /api/gamification/recent-badge
// Acknowledge the recent-badge toast.
func (h *GamificationHandler) ClearRecentBadge(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Gamification.ClearRecentBadge()
	c.Status(http.StatusNoContent)
}

// GET /api/badges
// The static badge catalog.
func (h *GamificationHandler) ListBadges(c *gin.Context) {
	RespondOK(c, gin.H{"badges": badges.Table})
}
