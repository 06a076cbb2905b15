package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hoshichaam/crm_loyalty_go/pkg/authutil"
	response "github.com/hoshichaam/crm_loyalty_go/pkg/response"
)

const (
	localUserID   = "userId"
	localUsername = "username"
	localRole     = "role"
)

// JWTRequired menolak request tanpa access token Bearer yang valid. Refresh
// token ditolak di sini (typ harus "access").
func JWTRequired(secret string) fiber.Handler {
	secret = strings.TrimSpace(secret)
	return func(c *fiber.Ctx) error {
		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authHeader == "" {
			return response.Error(c, fiber.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return response.Error(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			return response.Error(c, fiber.StatusUnauthorized, "authorization token is empty")
		}

		claims, err := authutil.ParseToken(secret, tokenStr, authutil.TokenAccess)
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "Token is invalid or expired")
		}
		id, err := claims.UserID()
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "Token is invalid or expired")
		}

		c.Locals(localUserID, id)
		c.Locals(localUsername, claims.Username)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// UserID dari token yang sudah diverifikasi JWTRequired.
func UserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(localUserID).(int64)
	return id, ok
}

func Username(c *fiber.Ctx) string {
	s, _ := c.Locals(localUsername).(string)
	return s
}
