package middleware

import (
	"strings"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/util"
)

// IsOriginAllowed reports whether a request origin may use the API. Local
// deployments allow everything; otherwise the origin must appear in the
// comma-separated ALLOWED_ORIGINS list.
func IsOriginAllowed(requestOrigin string) bool {
	if env.GetString("ENV") == "local" {
		return true
	}

	allowedOrigins := strings.Split(env.GetString("ALLOWED_ORIGINS"), ",")
	return util.ContainsString(allowedOrigins, requestOrigin)
}
