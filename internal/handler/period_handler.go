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

// PeriodHandler exposes academic period endpoints.
type PeriodHandler struct {
	periods *service.PeriodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List academic periods
// @Tags Periods
// @Produce json
// @Param year query int false "Filter by year"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	var filter models.PeriodFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		filter.IsActive = &active
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	periods, pagination, err := h.periods.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, pagination)
}

// Get godoc
// @Summary Get one period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// GetActive godoc
// @Summary Get the active period
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/active [get]
func (h *PeriodHandler) GetActive(c *gin.Context) {
	period, err := h.periods.GetActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create a period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req service.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update a period
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param payload body service.UpdatePeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req service.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Activate godoc
// @Summary Activate a period
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/activate [put]
func (h *PeriodHandler) Activate(c *gin.Context) {
	period, err := h.periods.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
