package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iosworks/claimdesk/internal/authorization"
	"github.com/iosworks/claimdesk/internal/tenantctx"
)

const (
	// HeaderTenant selects the tenant store(s) for the request, as a
	// comma-separated list of tenant identifiers.
	HeaderTenant    = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		ctx := tenantctx.WithRequestID(c.Request.Context(), id)
		ctx = tenantctx.WithClientIP(ctx, clientIP(c))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func AccessLog(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", tenantctx.RequestIDFromContext(c.Request.Context())),
		)
	}
}

// AuthRequired verifies the bearer token and places the actor in the
// request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.authsvc.Authenticate(strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		actor := tenantctx.Actor{
			UserID:  claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Role:    claims.Role,
			Tenants: claims.Tenants,
		}
		c.Request = c.Request.WithContext(tenantctx.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// TenantGuard validates the tenant header against the actor's allow-list
// before any store access. Mutating verbs must target exactly one tenant.
func (s *Server) TenantGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(HeaderTenant)
		if strings.TrimSpace(header) == "" {
			AbortWithError(c, httpError(http.StatusBadRequest, "tenant header %s is required", HeaderTenant))
			return
		}

		var requested []string
		for _, part := range strings.Split(header, ",") {
			if id := strings.TrimSpace(part); id != "" {
				requested = append(requested, id)
			}
		}
		if len(requested) == 0 {
			AbortWithError(c, httpError(http.StatusBadRequest, "tenant header %s is empty", HeaderTenant))
			return
		}

		actor, _ := tenantctx.ActorFromContext(c.Request.Context())
		if actor.Role != "Admin" {
			allowed := make(map[string]bool, len(actor.Tenants))
			for _, id := range actor.Tenants {
				allowed[id] = true
			}
			var disallowed []string
			for _, id := range requested {
				if !allowed[id] {
					disallowed = append(disallowed, id)
				}
			}
			if len(disallowed) > 0 {
				AbortWithError(c, forbiddenTenantsError(disallowed))
				return
			}
		}

		if isMutating(c.Request.Method) && len(requested) > 1 {
			AbortWithError(c, httpError(http.StatusBadRequest, "writes must target exactly one tenant"))
			return
		}

		tenants := tenantctx.Tenants{Requested: requested, Primary: requested[0]}
		c.Request = c.Request.WithContext(tenantctx.WithTenants(c.Request.Context(), tenants))
		c.Next()
	}
}

// RequireAction gates a route on the casbin policy for the actor's role.
func (s *Server) RequireAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := tenantctx.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !s.authzSvc.Can(actor.Role, object, action) {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) RequireRecordWrite() gin.HandlerFunc {
	return s.RequireAction(authorization.ObjectRecord, authorization.ActionWrite)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func clientIP(c *gin.Context) string {
	if fwd := strings.TrimSpace(c.GetHeader("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return c.ClientIP()
}

func requestTenants(c *gin.Context) tenantctx.Tenants {
	t, _ := tenantctx.TenantsFromContext(c.Request.Context())
	return t
}
