package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

func parseIDParam(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, httpError(http.StatusBadRequest, "invalid id %q", raw)
	}
	return id, nil
}

func parsePagination(c *gin.Context) pagination.Query {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}
