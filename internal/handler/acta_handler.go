package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/service"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// ActaHandler exposes record closure endpoints.
type ActaHandler struct {
	actas   *service.ActaService
	metrics *service.MetricsService
}

// NewActaHandler constructs ActaHandler.
func NewActaHandler(actas *service.ActaService, metrics *service.MetricsService) *ActaHandler {
	return &ActaHandler{actas: actas, metrics: metrics}
}

// List godoc
// @Summary List actas
// @Tags Actas
// @Produce json
// @Security BearerAuth
// @Param periodId query string false "Filter by period"
// @Param teacherId query string false "Filter by teacher"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /actas [get]
func (h *ActaHandler) List(c *gin.Context) {
	var filter models.ActaFilter
	filter.PeriodID = c.Query("periodId")
	filter.TeacherID = c.Query("teacherId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	actas, pagination, err := h.actas.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, actas, pagination)
}

// Get godoc
// @Summary Get one acta with its sealed roster
// @Tags Actas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Acta ID"
// @Success 200 {object} response.Envelope
// @Router /actas/{id} [get]
func (h *ActaHandler) Get(c *gin.Context) {
	detail, rows, err := h.actas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"acta": detail, "students": rows}, nil)
}

// Close godoc
// @Summary Close a teaching assignment's grade records
// @Tags Actas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CloseActaRequest true "Closure payload"
// @Success 201 {object} response.Envelope
// @Router /actas [post]
func (h *ActaHandler) Close(c *gin.Context) {
	var req service.CloseActaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ActorID = actorID(c)

	detail, err := h.actas.Close(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordActaClosed()
	response.Created(c, detail)
}

// Export godoc
// @Summary Export an acta as CSV or PDF
// @Tags Actas
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Acta ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /actas/{id}/export [get]
func (h *ActaHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	result, err := h.actas.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
