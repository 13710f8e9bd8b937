package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/iosworks/claimdesk/internal/audit/domain"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	q := parsePagination(c)
	tenants := requestTenants(c)

	partials, total, err := s.auditRec.List(c.Request.Context(), tenants.Requested, q)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if len(tenants.Requested) == 1 {
		items := []auditdomain.Entry{}
		if len(partials) > 0 && partials[0].Items != nil {
			items = partials[0].Items
		}
		c.JSON(http.StatusOK, gin.H{
			"auditLogs": items,
			"total":     total,
			"page":      q.Page,
			"pages":     pagination.Pages(total, q.Limit),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auditLogs": tagRecords(partials),
		"tenants":   tenants.Requested,
		"perTenant": perTenantTotals(partials),
		"page":      q.Page,
		"limit":     q.Limit,
	})
}

func (s *Server) GetAuditLogByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	entry, origin, err := s.auditRec.Get(c.Request.Context(), tenants.Requested, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if len(tenants.Requested) > 1 {
		c.JSON(http.StatusOK, tagRecord(*entry, origin))
		return
	}
	c.JSON(http.StatusOK, entry)
}
