package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/models"
	"github.com/sigea-edu/sigea-api/internal/service"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// PreEnrollmentHandler exposes pre-enrollment endpoints.
type PreEnrollmentHandler struct {
	preEnrollments *service.PreEnrollmentService
}

// NewPreEnrollmentHandler constructs PreEnrollmentHandler.
func NewPreEnrollmentHandler(preEnrollments *service.PreEnrollmentService) *PreEnrollmentHandler {
	return &PreEnrollmentHandler{preEnrollments: preEnrollments}
}

// List godoc
// @Summary List pre-enrollments
// @Tags PreEnrollments
// @Produce json
// @Security BearerAuth
// @Param periodId query string false "Filter by period"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /pre-enrollments [get]
func (h *PreEnrollmentHandler) List(c *gin.Context) {
	var filter models.PreEnrollmentFilter
	filter.PeriodID = c.Query("periodId")
	filter.StudentID = c.Query("studentId")
	filter.Status = models.PreEnrollmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	items, pagination, err := h.preEnrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one pre-enrollment with its lines
// @Tags PreEnrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pre-enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /pre-enrollments/{id} [get]
func (h *PreEnrollmentHandler) Get(c *gin.Context) {
	detail, err := h.preEnrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a pre-enrollment
// @Tags PreEnrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreatePreEnrollmentRequest true "Pre-enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /pre-enrollments [post]
func (h *PreEnrollmentHandler) Create(c *gin.Context) {
	var req service.CreatePreEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.preEnrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Review godoc
// @Summary Approve, reject or reset a pre-enrollment
// @Tags PreEnrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pre-enrollment ID"
// @Param payload body service.ReviewPreEnrollmentRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /pre-enrollments/{id}/review [put]
func (h *PreEnrollmentHandler) Review(c *gin.Context) {
	var req service.ReviewPreEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.preEnrollments.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
