package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fablelab/fablelab-backend/internal/logger"
	"github.com/fablelab/fablelab-backend/internal/requestdata"
	"github.com/fablelab/fablelab-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	sessions services.SessionManager
}

func NewProgressHandler(log *logger.Logger, sessions services.SessionManager) *ProgressHandler {
	return &ProgressHandler{
		log:      log.With("handler", "ProgressHandler"),
		sessions: sessions,
	}
}

// GET /api/progress
// Current progress snapshot for the signed-in user.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{"progress": sess.Progress.Snapshot()})
}

// POST /api/progress/lessons/:id/complete
// Mark a lesson completed. Idempotent.
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Progress.CompleteLesson(c.Param("id"))
	RespondOK(c, gin.H{"progress": sess.Progress.Snapshot()})
}

// POST /api/progress/quiz-scores
// Record a quiz result for a lesson. Later attempts overwrite earlier ones.
func (h *ProgressHandler) SaveQuizScore(c *gin.Context) {
	var req struct {
		LessonID string `json:"lessonId" binding:"required"`
		Score    int    `json:"score"`
		Total    int    `json:"total" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Progress.SaveQuizScore(req.LessonID, req.Score, req.Total)
	RespondOK(c, gin.H{"progress": sess.Progress.Snapshot()})
}

// PUT /api/progress/cursor
// Move the current module/lesson cursor. Omitted fields are left alone.
func (h *ProgressHandler) SetCursor(c *gin.Context) {
	var req struct {
		CurrentModule *string `json:"currentModule"`
		CurrentLesson *string `json:"currentLesson"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	if req.CurrentModule != nil {
		sess.Progress.SetCurrentModule(req.CurrentModule)
	}
	if req.CurrentLesson != nil {
		sess.Progress.SetCurrentLesson(req.CurrentLesson)
	}
	RespondOK(c, gin.H{"progress": sess.Progress.Snapshot()})
}

// POST /api/progress/exercises/:id/submit
// Record an exercise submission. Idempotent.
func (h *ProgressHandler) SubmitExercise(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	sess.Progress.SubmitExercise(c.Param("id"))
	RespondOK(c, gin.H{"progress": sess.Progress.Snapshot()})
}

// POST /api/progress/module-progress
// Percentage of the given lessons the user has completed.
func (h *ProgressHandler) GetModuleProgress(c *gin.Context) {
	var req struct {
		LessonIDs []string `json:"lessonIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	sess := h.sessions.Get(c.Request.Context(), rd.UserID)
	RespondOK(c, gin.H{
		"percent":   sess.Progress.GetModuleProgress(req.LessonIDs),
		"completed": sess.Progress.IsModuleCompleted(req.LessonIDs),
	})
}
