package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// SkillHandler exposes the skill directory.
type SkillHandler struct {
	skills *services.SkillService
}

// NewSkillHandler constructs a SkillHandler.
func NewSkillHandler(skills *services.SkillService) *SkillHandler {
	return &SkillHandler{skills: skills}
}

type createSkillRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

// List handles GET /api/skills.
func (h *SkillHandler) List(c *gin.Context) {
	skills, err := h.skills.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, skills)
}

// Create handles POST /api/skills.
func (h *SkillHandler) Create(c *gin.Context) {
	var req createSkillRequest
	if !bindAndValidate(c, &req) {
		return
	}
	skill, err := h.skills.Create(requestContext(c), req.Name, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, skill)
}
