package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDLocal = "user_id"

// OptionalJwtMiddleware stores the token's user_id claim in ctx.Locals when a
// valid bearer token is present. Requests without a token pass through; a
// present but invalid token is rejected. An empty secret disables token parsing.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Next()
		}

		userID, err := ParseUserID(tokenStr, secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token", nil))
		}

		ctx.Locals(UserIDLocal, userID)
		return ctx.Next()
	}
}

// BearerToken reads the Authorization header, falling back to the "token" query
// parameter used by browser websocket clients.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func ParseUserID(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fiber.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fiber.ErrUnauthorized
	}
	return userID, nil
}

// ResolveUserID picks the caller identity: token claim first, then the
// explicit value, then fallback.
func ResolveUserID(ctx *fiber.Ctx, explicit, fallback string) string {
	if v, ok := ctx.Locals(UserIDLocal).(string); ok && v != "" {
		return v
	}
	if explicit != "" {
		return explicit
	}
	return fallback
}
