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

// CatalogHandler exposes the catalog endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListPrograms godoc
// @Summary List programs
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/programs [get]
func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	programs, err := h.catalog.ListPrograms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// ListShifts godoc
// @Summary List shifts
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/shifts [get]
func (h *CatalogHandler) ListShifts(c *gin.Context) {
	shifts, err := h.catalog.ListShifts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}

// ListCourseUnits godoc
// @Summary List course units for a study plan
// @Tags Catalog
// @Produce json
// @Param studyPlanId query string true "Study plan ID"
// @Param cycle query int false "Filter by cycle"
// @Success 200 {object} response.Envelope
// @Router /catalog/course-units [get]
func (h *CatalogHandler) ListCourseUnits(c *gin.Context) {
	cycle, _ := strconv.Atoi(c.Query("cycle"))
	units, err := h.catalog.ListCourseUnits(c.Request.Context(), c.Query("studyPlanId"), cycle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, units, nil)
}

// GetCourseUnit godoc
// @Summary Get one course unit
// @Tags Catalog
// @Produce json
// @Param id path string true "Course unit ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/course-units/{id} [get]
func (h *CatalogHandler) GetCourseUnit(c *gin.Context) {
	unit, err := h.catalog.GetCourseUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, nil)
}

// ListAssignments godoc
// @Summary List teaching assignments
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param teacherId query string false "Filter by teacher"
// @Param courseUnitId query string false "Filter by course unit"
// @Param periodId query string false "Filter by period"
// @Param shiftId query string false "Filter by shift"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *CatalogHandler) ListAssignments(c *gin.Context) {
	filter := models.TeachingAssignmentFilter{
		TeacherID:    c.Query("teacherId"),
		CourseUnitID: c.Query("courseUnitId"),
		PeriodID:     c.Query("periodId"),
		ShiftID:      c.Query("shiftId"),
	}
	assignments, err := h.catalog.ListTeachingAssignments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Create a teaching assignment
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTeachingAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *CatalogHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateTeachingAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.catalog.CreateTeachingAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// GetAssignment godoc
// @Summary Get one teaching assignment
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teaching assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *CatalogHandler) GetAssignment(c *gin.Context) {
	detail, err := h.catalog.GetTeachingAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
