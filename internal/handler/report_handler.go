package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/service"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// ReportHandler exposes roster and transcript endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Roster godoc
// @Summary Get a teaching assignment's grading roster
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teaching assignment ID"
// @Success 200 {object} response.Envelope
// @Router /reports/assignments/{id}/roster [get]
func (h *ReportHandler) Roster(c *gin.Context) {
	roster, err := h.reports.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Transcript godoc
// @Summary Get a student's cross-period transcript
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/students/{id}/transcript [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	transcript, err := h.reports.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}
