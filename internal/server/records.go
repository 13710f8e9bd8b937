package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	recdomain "github.com/iosworks/claimdesk/internal/records/domain"
	recservice "github.com/iosworks/claimdesk/internal/records/service"
	"github.com/iosworks/claimdesk/internal/tenant"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

// registerRecordRoutes mounts the standard CRUD surface for one registry
// entity. All six registries share these handlers; only the descriptor
// and the route segment differ.
func registerRecordRoutes[T recdomain.Entity](s *Server, api *gin.RouterGroup, path string, svc *recservice.Service[T]) {
	g := api.Group("/" + path)

	g.GET("", listRecords(s, svc))
	g.GET("/:id", getRecordByID(s, svc))
	g.POST("", s.RequireRecordWrite(), createRecord(s, svc))
	g.PUT("/:id", s.RequireRecordWrite(), updateRecord(s, svc))
	g.DELETE("/:id", s.RequireRecordWrite(), deleteRecord(s, svc))
}

func listRecords[T recdomain.Entity](s *Server, svc *recservice.Service[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := parsePagination(c)
		tenants := requestTenants(c)

		partials, total, err := svc.List(c.Request.Context(), tenants.Requested, q, c.Query("filter"))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		plural := svc.Descriptor().Plural
		if len(tenants.Requested) == 1 {
			items := []T{}
			if len(partials) > 0 && partials[0].Items != nil {
				items = partials[0].Items
			}
			c.JSON(http.StatusOK, gin.H{
				plural:  items,
				"total": total,
				"page":  q.Page,
				"pages": pagination.Pages(total, q.Limit),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			plural:      tagRecords(partials),
			"tenants":   tenants.Requested,
			"perTenant": perTenantTotals(partials),
			"page":      q.Page,
			"limit":     q.Limit,
		})
	}
}

func getRecordByID[T recdomain.Entity](s *Server, svc *recservice.Service[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		tenants := requestTenants(c)

		item, origin, err := svc.Get(c.Request.Context(), tenants.Requested, id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if len(tenants.Requested) > 1 {
			c.JSON(http.StatusOK, tagRecord(*item, origin))
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func createRecord[T recdomain.Entity](s *Server, svc *recservice.Service[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
			return
		}
		tenants := requestTenants(c)

		item, err := svc.Create(c.Request.Context(), tenants.Primary, payload)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func updateRecord[T recdomain.Entity](s *Server, svc *recservice.Service[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
			return
		}
		tenants := requestTenants(c)

		item, err := svc.Update(c.Request.Context(), tenants.Primary, id, payload)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func deleteRecord[T recdomain.Entity](s *Server, svc *recservice.Service[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIDParam(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		tenants := requestTenants(c)

		if err := svc.Delete(c.Request.Context(), tenants.Primary, id); err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
	}
}

// tagRecords flattens per-tenant partials into one list, each record
// carrying a "tenant" key naming its origin store. Concatenation order is
// the tenant iteration order.
func tagRecords[T any](partials []tenant.Partial[T]) []map[string]any {
	out := []map[string]any{}
	for _, p := range partials {
		for _, item := range p.Items {
			out = append(out, tagRecord(item, p.Tenant))
		}
	}
	return out
}

func tagRecord[T any](item T, tenantID string) map[string]any {
	m := map[string]any{}
	if raw, err := json.Marshal(item); err == nil {
		_ = json.Unmarshal(raw, &m)
	}
	m["tenant"] = tenantID
	return m
}

func perTenantTotals[T any](partials []tenant.Partial[T]) []gin.H {
	out := make([]gin.H, 0, len(partials))
	for _, p := range partials {
		out = append(out, gin.H{"tenant": p.Tenant, "total": p.Total})
	}
	return out
}
