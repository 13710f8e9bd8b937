package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authdomain "github.com/iosworks/claimdesk/internal/auth/domain"
	"github.com/iosworks/claimdesk/internal/tenantctx"
)

func (s *Server) SignUp(c *gin.Context) {
	var req authdomain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
		return
	}

	user, err := s.authsvc.SignUp(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user": authdomain.UserView{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	})
}

func (s *Server) SignIn(c *gin.Context) {
	var req authdomain.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, httpError(http.StatusBadRequest, "invalid request body"))
		return
	}

	result, err := s.authsvc.SignIn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Me(c *gin.Context) {
	actor, ok := tenantctx.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": authdomain.UserView{
			ID:    actor.UserID,
			Email: actor.Email,
			Name:  actor.Name,
			Role:  actor.Role,
		},
		"tenants": actor.Tenants,
	})
}
