package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sigea-edu/sigea-api/internal/service"
	appErrors "github.com/sigea-edu/sigea-api/pkg/errors"
	"github.com/sigea-edu/sigea-api/pkg/response"
)

// CapacityRuleHandler exposes capacity rule endpoints.
type CapacityRuleHandler struct {
	rules *service.CapacityRuleService
}

// NewCapacityRuleHandler constructs CapacityRuleHandler.
func NewCapacityRuleHandler(rules *service.CapacityRuleService) *CapacityRuleHandler {
	return &CapacityRuleHandler{rules: rules}
}

// List godoc
// @Summary List capacity rules
// @Tags CapacityRules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /capacity-rules [get]
func (h *CapacityRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create a capacity rule
// @Tags CapacityRules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateCapacityRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /capacity-rules [post]
func (h *CapacityRuleHandler) Create(c *gin.Context) {
	var req service.CreateCapacityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// Update godoc
// @Summary Update a capacity rule
// @Tags CapacityRules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rule ID"
// @Param payload body service.UpdateCapacityRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /capacity-rules/{id} [put]
func (h *CapacityRuleHandler) Update(c *gin.Context) {
	var req service.UpdateCapacityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}
