package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/service"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// GradeHandler exposes score entry and finalization endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// GetLineScores godoc
// @Summary Get a line's recorded scores
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param lineId path string true "Enrollment line ID"
// @Success 200 {object} response.Envelope
// @Router /lines/{lineId}/scores [get]
func (h *GradeHandler) GetLineScores(c *gin.Context) {
	scores, err := h.grades.GetLineScores(c.Request.Context(), c.Param("lineId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// RecordScore godoc
// @Summary Record one score
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores [post]
func (h *GradeHandler) RecordScore(c *gin.Context) {
	var req service.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ActorID = actorID(c)

	score, err := h.grades.RecordScore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// RecordScores godoc
// @Summary Record scores in batch
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BatchScoreRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /scores/batch [post]
func (h *GradeHandler) RecordScores(c *gin.Context) {
	var req service.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ActorID = actorID(c)

	result, err := h.grades.RecordScores(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// FinalizeLine godoc
// @Summary Finalize a line's grade
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param lineId path string true "Enrollment line ID"
// @Success 200 {object} response.Envelope
// @Router /lines/{lineId}/finalize [post]
func (h *GradeHandler) FinalizeLine(c *gin.Context) {
	grade, err := h.grades.FinalizeLine(c.Request.Context(), c.Param("lineId"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}
