package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appValidator "github.com/charlesng35/volunteerhub/pkg/validator"
)

func TestFormatValidationError(t *testing.T) {
	type payload struct {
		FullName string `json:"full_name" validate:"required"`
		Urgency  string `json:"urgency" validate:"oneof=low medium high"`
		Zip      string `json:"zip" validate:"len=5"`
	}

	err := appValidator.ValidateStruct(payload{Zip: "1"})
	require.Error(t, err)

	msg := formatValidationError(err)
	require.Contains(t, msg, "full name is required")
	require.Contains(t, msg, "urgency must be one of low medium high")
	require.Contains(t, msg, "zip failed validation: len=5")

	require.Equal(t, "invalid request payload", formatValidationError(nil))
}

func TestGatherStreams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/realtime?stream=Events&stream=notifications&streams=events,+assignments,", nil)

	require.Equal(t, []string{"events", "notifications", "assignments"}, gatherStreams(c))
}

func TestAllowedStreams(t *testing.T) {
	require.NotContains(t, allowedStreams(false), "assignments")
	require.Contains(t, allowedStreams(true), "assignments")
	require.Contains(t, allowedStreams(false), "events")
}

func TestParseIntQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?limit=10&offset=abc", nil)

	require.Equal(t, 10, parseIntQuery(c, "limit", 50))
	require.Equal(t, 0, parseIntQuery(c, "offset", 0))
	require.Equal(t, 7, parseIntQuery(c, "missing", 7))
}
