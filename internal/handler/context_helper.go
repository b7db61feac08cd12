package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/middleware"
)

// actorID names the caller in audit log lines.
func actorID(c *gin.Context) string {
	if claims := middleware.ClaimsFromContext(c); claims != nil && claims.UserID != "" {
		return claims.UserID
	}
	return "anonymous"
}
