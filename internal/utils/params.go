package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseQueryInt parses an optional integer query parameter, falling back to
// the default when the parameter is absent or unparseable.
func ParseQueryInt(c *gin.Context, name string, defaultValue int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

// ParseQueryFloat parses an optional float query parameter, falling back to
// the default when the parameter is absent or unparseable.
func ParseQueryFloat(c *gin.Context, name string, defaultValue float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// ParseWindows parses the comma-separated `windows` query parameter
// ("20,60,90") into window sizes, or returns nil when absent so the caller
// applies its configured defaults.
func ParseWindows(c *gin.Context) ([]int, error) {
	raw := c.Query("windows")
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid window size %q", p)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// SendErrorResponse sends a standardized error response
func SendErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}
