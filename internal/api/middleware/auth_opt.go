package middleware

import (
	"Agora/internal/pkg/logger"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入 UID，失败或缺失按匿名访问处理（UID 为 0）
func AuthOptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c)
		if err != nil {
			if c.GetHeader("Authorization") != "" {
				log.DebugContext(c.Request.Context(), "optional auth fell back to anonymous", "err", err)
			}
			c.Set(logger.UserIDKey, uint64(0))
			c.Next()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}
