package middleware

import (
	"context"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/georgesgallery/gallery-go/env"
	"github.com/georgesgallery/gallery-go/service/logger"
	"github.com/georgesgallery/gallery-go/util"
)

// AdminHeader is the shared-secret header required on mutating requests.
const AdminHeader = "X-Admin-Password"

// AdminRequired is a middleware that checks the shared admin secret on
// mutating requests. The header is compared verbatim against ADMIN_PASS; an
// unset secret rejects everything rather than matching empty headers.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		pass := env.GetString("ADMIN_PASS")
		if pass == "" || c.GetHeader(AdminHeader) != pass {
			c.AbortWithStatusJSON(http.StatusUnauthorized, util.ErrorResponse{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}

// ErrLogger is a middleware that logs errors recorded on the gin context
func ErrLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.For(c).Errorf("%s %s %s %s %s", c.Request.Method, c.Request.URL, c.ClientIP(), c.Request.Header.Get("User-Agent"), c.Errors.JSON())
		}
	}
}

// GinContextToContext is a middleware that adds the gin context to the
// request context so it can be recovered below the handler layer, and scopes
// the request logger to the method and path
func GinContextToContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.NewContextWithFields(c.Request.Context(), logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		ctx = context.WithValue(ctx, util.GinContextKey, c)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Sentry reports request errors when a DSN is configured; sentry.Init must
// have run already.
func Sentry() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{Repanic: true})
}

// HandleCORS sets the CORS headers
func HandleCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		if IsOriginAllowed(requestOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+AdminHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
