package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/middleware"
	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// EventHandler manages events and their assignment rosters.
type EventHandler struct {
	events      *services.EventService
	assignments *services.AssignmentService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *services.EventService, assignments *services.AssignmentService) *EventHandler {
	return &EventHandler{events: events, assignments: assignments}
}

type eventRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	Location    string   `json:"location" validate:"required"`
	Date        string   `json:"date" validate:"required,isodate"`
	Urgency     string   `json:"urgency" validate:"omitempty,oneof=low medium high"`
	Skills      []string `json:"skills" validate:"dive,required"`
}

func (r eventRequest) input() services.EventInput {
	return services.EventInput{
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		Date:        r.Date,
		Urgency:     r.Urgency,
		Skills:      r.Skills,
	}
}

// List handles GET /api/events.
func (h *EventHandler) List(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.events.List(requestContext(c), services.ListEventsInput{
		From:   c.Query("from"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: int(total), Limit: limit, Offset: offset})
}

// Get handles GET /api/events/:id.
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

// Create handles POST /api/events.
func (h *EventHandler) Create(c *gin.Context) {
	var req eventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	event, err := h.events.Create(requestContext(c), c.GetString(middleware.CtxUserIDKey), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, event)
}

// Update handles PUT /api/events/:id.
func (h *EventHandler) Update(c *gin.Context) {
	var req eventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	event, err := h.events.Update(requestContext(c), c.Param("id"), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, event)
}

// Delete handles DELETE /api/events/:id.
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Assignments handles GET /api/events/:id/assignments.
func (h *EventHandler) Assignments(c *gin.Context) {
	items, err := h.assignments.ListForEvent(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}
