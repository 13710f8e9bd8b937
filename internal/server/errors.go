package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	attachment "github.com/iosworks/claimdesk/internal/attachment"
	attdomain "github.com/iosworks/claimdesk/internal/attendance/domain"
	auditdomain "github.com/iosworks/claimdesk/internal/audit/domain"
	authdomain "github.com/iosworks/claimdesk/internal/auth/domain"
	recdomain "github.com/iosworks/claimdesk/internal/records/domain"
)

var (
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// statusError carries an explicit HTTP status with a human-readable
// message. All error responses are flat {"error": message} objects.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

func httpError(status int, format string, args ...any) error {
	return &statusError{status: status, message: fmt.Sprintf(format, args...)}
}

// forbiddenTenantsError enumerates exactly the identifiers outside the
// caller's allow-list.
func forbiddenTenantsError(disallowed []string) error {
	return httpError(http.StatusForbidden, "access denied for tenants: %s", strings.Join(disallowed, ", "))
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, gin.H{"error": message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	var sErr *statusError
	if errors.As(err, &sErr) {
		return sErr.status, sErr.message
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, recdomain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ErrNotFound),
		errors.Is(err, recdomain.ErrNotFound),
		errors.Is(err, attdomain.ErrNotFound),
		errors.Is(err, auditdomain.ErrNotFound),
		errors.Is(err, attachment.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrCredentialsRequired),
		errors.Is(err, attdomain.ErrFollowUpIndex),
		errors.Is(err, attdomain.ErrActionRequired),
		errors.Is(err, attachment.ErrFileRequired):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
