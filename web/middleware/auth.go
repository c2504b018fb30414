package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDKey = "userID"

// CurrentUser extracts the acting user from a Bearer token when one is
// present. Identity is permissive: a missing or invalid token leaves the
// request anonymous instead of failing it, and created_by/updated_by simply
// stay unset downstream.
func CurrentUser(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Printf("ignoring invalid bearer token: %v", err)
			return c.Next()
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, err := claims.GetSubject(); err == nil && sub != "" {
				c.Locals(UserIDKey, sub)
			}
		}
		return c.Next()
	}
}

// ActorID returns the authenticated user id for the request, or nil when the
// request is anonymous.
func ActorID(c *fiber.Ctx) *string {
	if v, ok := c.Locals(UserIDKey).(string); ok && v != "" {
		return &v
	}
	return nil
}
