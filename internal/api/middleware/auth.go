package middleware

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/logger"
	"Agora/internal/pkg/redis"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/security"
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	errTokenMissing = errors.New("Token 缺失或格式错误")
	errTokenInvalid = errors.New("Token 无效或已过期")
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c)
		switch {
		case errors.Is(err, errTokenMissing), errors.Is(err, errTokenInvalid):
			response.Fail(c, response.Unauthorized, err.Error())
			c.Abort()
			return
		case err != nil:
			response.Error(c, err)
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// bearerClaims 解析 Authorization 头，已注销的 token 由身份服务写入吊销列表
func bearerClaims(c *gin.Context) (*security.UserClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errTokenMissing
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	signature, err := security.ExtractSignature(tokenString)
	if err != nil {
		return nil, errTokenMissing
	}

	revoked, err := redis.GetValue(c.Request.Context(), consts.TokenRevokedKey+signature)
	if err != nil {
		return nil, err
	}
	if revoked != "" {
		return nil, errTokenInvalid
	}

	claims, err := security.ValidateToken(tokenString)
	if err != nil {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims *security.UserClaims) {
	c.Set(logger.UserIDKey, claims.UserID)
	c.Set("roles", claims.Roles)

	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}
