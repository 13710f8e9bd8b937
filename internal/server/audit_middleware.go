package server

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	auditdomain "github.com/iosworks/claimdesk/internal/audit/domain"
	auditservice "github.com/iosworks/claimdesk/internal/audit/service"
	"github.com/iosworks/claimdesk/internal/tenantctx"
)

const maxAuditBodyBytes = 1 << 20

// AuditTrail observes every mutating request carrying a tenant header and
// queues one audit entry after the response is written, whatever the
// outcome. The request body is captured up front and restored so handlers
// can still read it.
func (s *Server) AuditTrail() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		tenantHeader := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if tenantHeader == "" {
			c.Next()
			return
		}
		tenantID := strings.TrimSpace(strings.Split(tenantHeader, ",")[0])

		var body []byte
		if c.Request.Body != nil && captureBody(c.Request.Method) {
			body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBodyBytes))
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		start := time.Now()
		c.Next()

		entry := auditdomain.Entry{
			User:   auditActor(c, body),
			Action: c.Request.Method,
			Route:  c.Request.URL.Path,
			Field:  auditField(c),
			Status: c.Writer.Status(),
			Date:   start.UTC(),
			IP:     tenantctx.ClientIPFromContext(c.Request.Context()),
		}
		if snapshot := redactedSnapshot(body); snapshot != nil {
			entry.NewValue = snapshot
		}

		s.auditRec.Submit(auditservice.Record{Tenant: tenantID, Entry: entry})
	}
}

func captureBody(method string) bool {
	return method == "POST" || method == "PUT" || method == "PATCH"
}

// auditActor prefers the authenticated identity, then an email field in
// the payload, then "unknown".
func auditActor(c *gin.Context, body []byte) string {
	if actor, ok := tenantctx.ActorFromContext(c.Request.Context()); ok && actor.Email != "" {
		return actor.Email
	}
	var payload map[string]any
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if email, ok := payload["email"].(string); ok && email != "" {
			return email
		}
	}
	return "unknown"
}

// auditField is the affected id drawn from the route parameters, falling
// back to the route itself.
func auditField(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	if key := c.Param("key"); key != "" {
		return key
	}
	return c.Request.URL.Path
}

func redactedSnapshot(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	raw, err := json.Marshal(auditdomain.Redact(payload))
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
