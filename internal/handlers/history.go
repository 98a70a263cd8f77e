package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// HistoryHandler serves participation history.
type HistoryHandler struct {
	history *services.HistoryService
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Mine handles GET /api/history.
func (h *HistoryHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.list(c, userID)
}

// ForVolunteer handles GET /api/history/:volunteerID.
func (h *HistoryHandler) ForVolunteer(c *gin.Context) {
	h.list(c, c.Param("volunteerID"))
}

func (h *HistoryHandler) list(c *gin.Context, volunteerID string) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.history.ListForVolunteer(requestContext(c), services.ListHistoryInput{
		VolunteerID: volunteerID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: int(total), Limit: limit, Offset: offset})
}
