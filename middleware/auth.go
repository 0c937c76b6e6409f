package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/golang-jwt/jwt/v5"
)

// Identity resolves the caller from a bearer token and stashes user_id and
// role on the request context. Token issuance belongs to the auth service;
// this side only consumes the resulting identity.
func Identity(secret string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		authz := string(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authz, "Bearer ") {
			c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "missing bearer token"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "invalid token claims"})
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.JSON(consts.StatusUnauthorized, map[string]interface{}{"error": "token subject required"})
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = "user"
		}
		c.Set("user_id", sub)
		c.Set("role", role)
		c.Next(ctx)
	}
}

// AdminOnly gates a route group to callers whose token carries the admin
// role.
func AdminOnly() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if Role(c) != "admin" {
			c.JSON(consts.StatusForbidden, map[string]interface{}{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

// UserID returns the authenticated user id placed by Identity.
func UserID(c *app.RequestContext) string {
	return c.GetString("user_id")
}

// Role returns the authenticated role placed by Identity.
func Role(c *app.RequestContext) string {
	return c.GetString("role")
}
