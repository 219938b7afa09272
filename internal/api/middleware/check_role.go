package middleware

import (
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/response"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// CheckRoles 需放在 AuthMiddleware 之后，拥有任一指定角色即可通过
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	required := make(map[string]struct{}, len(requiredRoles))
	for _, role := range requiredRoles {
		required[role] = struct{}{}
	}

	return func(c *gin.Context) {
		for _, role := range c.GetStringSlice("roles") {
			if _, ok := required[role]; ok {
				c.Next()
				return
			}
		}

		log.WarnContext(c.Request.Context(), "role check denied",
			"user_id", c.GetUint64(logger.UserIDKey),
			"path", c.FullPath(),
			"required", requiredRoles)
		response.Fail(c, response.Forbidden, "权限不足：无权访问该资源")
		c.Abort()
	}
}
