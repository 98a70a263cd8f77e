package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/internal/services"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// ProfileHandler serves the caller's volunteer profile.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileRequest struct {
	FullName       string   `json:"full_name" validate:"required,max=50"`
	Address1       string   `json:"address1" validate:"max=100"`
	Address2       string   `json:"address2" validate:"max=100"`
	City           string   `json:"city" validate:"required,max=100"`
	State          string   `json:"state" validate:"required,len=2"`
	Zip            string   `json:"zip" validate:"omitempty,min=5,max=10"`
	Preferences    string   `json:"preferences"`
	Skills         []string `json:"skills" validate:"dive,required"`
	AvailableFrom  string   `json:"available_from" validate:"isodate"`
	AvailableUntil string   `json:"available_until" validate:"isodate"`
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), userID, services.ProfileInput{
		FullName:       req.FullName,
		Address1:       req.Address1,
		Address2:       req.Address2,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		Preferences:    req.Preferences,
		Skills:         req.Skills,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
