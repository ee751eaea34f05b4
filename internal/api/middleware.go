package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/piccolojnr/planning-platform/internal/service"
	"github.com/piccolojnr/planning-platform/internal/util"
	"github.com/piccolojnr/planning-platform/pkg/metrics"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
	"github.com/piccolojnr/planning-platform/pkg/trace"
)

const (
	ctxUserID    = "user_id"
	ctxProjectID = "project_id"
	ctxRole      = "role"
)

// TraceMiddleware attaches a trace id to every request, reusing the caller's
// when the header is present.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// MetricsMiddleware records request latency per route and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		userID, err := util.ParseJWT(token, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		// store user_id in context so handlers can use it
		c.Set(ctxUserID, userID)

		c.Next()
	}
}

// RequireProjectAccess resolves the caller's role on the :projectID route
// parameter and checks the permission. Projects the caller cannot see at all
// answer 404, so ids cannot be enumerated.
func RequireProjectAccess(access *service.AccessService, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseInt(c.Param("projectID"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
			c.Abort()
			return
		}

		userID := c.GetInt64(ctxUserID)
		role, err := access.Require(c.Request.Context(), projectID, userID, permission)
		if err != nil {
			if errors.Is(err, service.ErrNoAccess) {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			} else {
				var denied *rbac.PermissionDeniedError
				if errors.As(err, &denied) {
					c.JSON(http.StatusForbidden, gin.H{"error": denied.Error()})
				} else {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve access"})
				}
			}
			c.Abort()
			return
		}

		c.Set(ctxProjectID, projectID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func currentProjectID(c *gin.Context) int64 {
	return c.GetInt64(ctxProjectID)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
