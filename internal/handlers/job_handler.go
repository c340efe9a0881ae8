package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/payroll-ledger-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, queue length, next scheduled runs)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} jobs.WorkerStats
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// RunAutoSeed queues an immediate auto seed of the current cutoff period
// @Summary Run auto seed now
// @Description Creates entries from default templates for the current cutoff period in every ledger
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]string
// @Router /jobs/auto_seed [post]
func (h *JobHandler) RunAutoSeed(c *gin.Context) {
	h.jobService.TriggerAutoSeed()
	c.JSON(http.StatusAccepted, gin.H{"job": services.JobAutoSeed, "status": "queued"})
}
