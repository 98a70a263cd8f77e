package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/internal/realtime"
	"github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated WebSocket streams.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

// NewRealtimeHandler constructs a realtime handler.
func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// Stream authenticates the caller from the token query parameter (browsers cannot
// set headers on websocket upgrades) and joins the hub. Volunteers may subscribe to
// notifications and events; administrators additionally see assignments.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil || strings.TrimSpace(claims.UserID) == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	allowed := allowedStreams(claims.IsAdmin)
	streams := gatherStreams(c)
	if len(streams) == 0 {
		streams = []string{realtime.StreamNotifications}
	}
	for _, stream := range streams {
		if _, ok := allowed[stream]; !ok {
			response.Error(c, errors.ErrForbidden)
			return
		}
	}

	h.hub.Serve(claims.UserID, streams, allowed, c.Writer, c.Request)
}

func allowedStreams(isAdmin bool) map[string]struct{} {
	allowed := map[string]struct{}{
		realtime.StreamNotifications: {},
		realtime.StreamEvents:        {},
	}
	if isAdmin {
		allowed[realtime.StreamAssignments] = struct{}{}
	}
	return allowed
}

func gatherStreams(c *gin.Context) []string {
	streams := append([]string(nil), c.QueryArray("stream")...)
	if raw := c.Query("streams"); raw != "" {
		streams = append(streams, strings.Split(raw, ",")...)
	}

	seen := make(map[string]struct{}, len(streams))
	out := make([]string, 0, len(streams))
	for _, stream := range streams {
		stream = strings.ToLower(strings.TrimSpace(stream))
		if stream == "" {
			continue
		}
		if _, ok := seen[stream]; ok {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
