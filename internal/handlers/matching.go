package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/middleware"
	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// MatchHandler exposes the match-check and match-assign operations.
type MatchHandler struct {
	matching    *services.MatchingService
	assignments *services.AssignmentService
}

// NewMatchHandler constructs a MatchHandler.
func NewMatchHandler(matching *services.MatchingService, assignments *services.AssignmentService) *MatchHandler {
	return &MatchHandler{matching: matching, assignments: assignments}
}

type assignRequest struct {
	EventID     string `json:"event_id" validate:"required"`
	VolunteerID string `json:"volunteer_id" validate:"required"`
}

// Eligible handles GET /api/match/:eventID.
func (h *MatchHandler) Eligible(c *gin.Context) {
	eligible, err := h.matching.FindEligibleVolunteers(requestContext(c), c.Param("eventID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if eligible == nil {
		eligible = []services.EligibleVolunteer{}
	}
	response.SuccessWithMeta(c, http.StatusOK, eligible, &response.Meta{Total: len(eligible)})
}

// Assign handles POST /api/match/assign.
func (h *MatchHandler) Assign(c *gin.Context) {
	var req assignRequest
	if !bindAndValidate(c, &req) {
		return
	}

	assignment, err := h.assignments.Assign(requestContext(c), services.AssignInput{
		EventID:     req.EventID,
		VolunteerID: req.VolunteerID,
		AssignedBy:  c.GetString(middleware.CtxUserIDKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, assignment)
}
