package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scribehub/scribe-be/internal/api/dto"
	"github.com/scribehub/scribe-be/internal/domain"
)

// StartEdit handles POST /api/v1/sessions/start-edit
// Stores the raw text as a new edit session. The pipeline run itself starts
// lazily, on the first observer of the session's event stream.
func (h *SessionHandler) StartEdit(c *gin.Context) {
	var req dto.StartEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = h.editPrompt
	}

	ctx := c.Request.Context()

	sessionID, err := h.sessions.Create(ctx, req.UserID, domain.SessionKindEdit)
	if err != nil {
		h.logger.Error("Failed to create edit session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create session",
		})
		return
	}

	err = h.sessions.UpdateText(ctx, sessionID, req.Text)
	if err == nil {
		err = h.sessions.UpdateTitle(ctx, sessionID, req.Title)
	}
	if err == nil {
		err = h.sessions.UpdatePrompt(ctx, sessionID, prompt)
	}
	if err != nil {
		h.storeInputFailed(c, sessionID, err)
		return
	}

	h.logger.Info("Edit session created",
		slog.String("session_id", sessionID),
		slog.String("user_id", req.UserID),
	)

	c.JSON(http.StatusOK, dto.StartSessionResponse{SessionID: sessionID})
}

// StartTranscribe handles POST /api/v1/sessions/start-transcribe
// Stores the media URL as a new transcribe session.
func (h *SessionHandler) StartTranscribe(c *gin.Context) {
	var req dto.StartTranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = h.transcribePrompt
	}

	ctx := c.Request.Context()

	sessionID, err := h.sessions.Create(ctx, req.UserID, domain.SessionKindTranscribe)
	if err != nil {
		h.logger.Error("Failed to create transcribe session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create session",
		})
		return
	}

	err = h.sessions.UpdateURL(ctx, sessionID, req.URL)
	if err == nil {
		err = h.sessions.UpdatePrompt(ctx, sessionID, prompt)
	}
	if err != nil {
		h.storeInputFailed(c, sessionID, err)
		return
	}

	h.logger.Info("Transcribe session created",
		slog.String("session_id", sessionID),
		slog.String("url", req.URL),
	)

	c.JSON(http.StatusOK, dto.StartSessionResponse{SessionID: sessionID})
}

// ListSessions handles GET /api/v1/sessions
// Lists sessions, optionally filtered by user_id.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID := c.Query("user_id")

	sessions, err := h.sessions.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list sessions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list sessions",
		})
		return
	}

	resp := dto.ListSessionsResponse{Sessions: make([]dto.SessionDTO, len(sessions))}
	for i, s := range sessions {
		resp.Sessions[i] = dto.SessionDTO{
			SessionID: s.ID,
			UserID:    s.UserID,
			Kind:      s.Kind,
			Title:     s.Title,
			Completed: s.Completed,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) storeInputFailed(c *gin.Context, sessionID string, err error) {
	h.logger.Error("Failed to store session input",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to store session input",
	})
}
