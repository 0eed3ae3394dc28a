package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/service"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// CriterionHandler exposes evaluation criteria endpoints.
type CriterionHandler struct {
	criteria *service.CriterionService
}

// NewCriterionHandler constructs CriterionHandler.
func NewCriterionHandler(criteria *service.CriterionService) *CriterionHandler {
	return &CriterionHandler{criteria: criteria}
}

// List godoc
// @Summary List an assignment's evaluation criteria
// @Tags Criteria
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teaching assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/criteria [get]
func (h *CriterionHandler) List(c *gin.Context) {
	criteria, err := h.criteria.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, criteria, nil)
}

// Replace godoc
// @Summary Replace an assignment's evaluation criteria
// @Tags Criteria
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teaching assignment ID"
// @Param payload body service.ReplaceCriteriaRequest true "Criteria payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/criteria [put]
func (h *CriterionHandler) Replace(c *gin.Context) {
	var req service.ReplaceCriteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	criteria, err := h.criteria.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, criteria, nil)
}
