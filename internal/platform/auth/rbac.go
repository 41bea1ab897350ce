package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Laboratory role vocabulary. admin is implicitly allowed everywhere.
const (
	RoleAdmin          = "admin"
	RoleLabDirector    = "lab_director"
	RoleQualityManager = "quality_manager"
	RolePathologist    = "pathologist"
	RoleLabTechnician  = "lab_technician"
	RoleReception      = "reception"
	RoleDoctor         = "doctor"
)

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, required := range roles {
				for _, has := range userRoles {
					if has == required || has == RoleAdmin {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
