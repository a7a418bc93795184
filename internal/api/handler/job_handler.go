package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scribehub/scribe-be/internal/domain"
)

// DeleteJob handles DELETE /api/v1/jobs/:job_id
// Permanently deletes a job record and its events. Administrative use only;
// live observers of the job are unaffected since the hub is not consulted.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		h.logger.Error("Invalid job_id format", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to delete job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete job",
		})
		return
	}

	h.logger.Info("Job deleted", slog.String("job_id", jobID))
	c.Status(http.StatusNoContent)
}
