package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
	"github.com/noah-isme/horario-api/pkg/response"
)

// Role groups used by the timetable routes.
var (
	ReadRoles  = []models.UserRole{models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher}
	WriteRoles = []models.UserRole{models.RoleAdmin, models.RoleCoordinator}
	AdminRoles = []models.UserRole{models.RoleAdmin}
)

// RequireRoles lets a request through when its claims carry one of roles.
// Super admins pass every check.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	allowed[models.RoleSuperAdmin] = struct{}{}

	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
