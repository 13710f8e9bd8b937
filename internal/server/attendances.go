package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	attdomain "github.com/iosworks/claimdesk/internal/attendance/domain"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

func (s *Server) ListAttendances(c *gin.Context) {
	q := parsePagination(c)
	tenants := requestTenants(c)

	partials, total, err := s.attendances.List(c.Request.Context(), tenants.Requested, q)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if len(tenants.Requested) == 1 {
		items := []attdomain.Attendance{}
		if len(partials) > 0 && partials[0].Items != nil {
			items = partials[0].Items
		}
		c.JSON(http.StatusOK, gin.H{
			"attendances": items,
			"total":       total,
			"page":        q.Page,
			"pages":       pagination.Pages(total, q.Limit),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attendances": tagRecords(partials),
		"tenants":     tenants.Requested,
		"perTenant":   perTenantTotals(partials),
		"page":        q.Page,
		"limit":       q.Limit,
	})
}

func (s *Server) GetAttendanceByID(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	item, origin, err := s.attendances.Get(c.Request.Context(), tenants.Requested, id)
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

func (s *Server) CreateAttendance(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
		return
	}
	tenants := requestTenants(c)

	item, err := s.attendances.Create(c.Request.Context(), tenants.Primary, payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) UpdateAttendance(c *gin.Context) {
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

	item, err := s.attendances.Update(c.Request.Context(), tenants.Primary, id, payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) DeleteAttendance(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	tenants := requestTenants(c)

	if err := s.attendances.Delete(c.Request.Context(), tenants.Primary, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

func (s *Server) AddFollowUp(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var entry attdomain.FollowUp
	if err := c.ShouldBindJSON(&entry); err != nil {
		AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
		return
	}
	tenants := requestTenants(c)

	item, err := s.attendances.AddFollowUp(c.Request.Context(), tenants.Primary, id, entry)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) RemoveFollowUp(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		AbortWithError(c, httpError(http.StatusBadRequest, "invalid follow-up index %q", c.Param("index")))
		return
	}
	tenants := requestTenants(c)

	item, err := s.attendances.RemoveFollowUp(c.Request.Context(), tenants.Primary, id, index)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
