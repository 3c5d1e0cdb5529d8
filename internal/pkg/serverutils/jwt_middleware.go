package serverutils

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RevocationChecker reports whether a token id has been signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims is what the gateway reads out of a session token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// ParseToken verifies an HS256 token and extracts its claims.
func ParseToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, Unauthorized("Invalid token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, Unauthorized("Invalid claims")
	}
	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return nil, Unauthorized("Token missing user_id")
	}
	email, _ := mc["email"].(string)
	jti, _ := mc["jti"].(string)

	claims := &Claims{UserID: userID, Email: email, TokenID: jti}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// BearerToken pulls the token from the Authorization header, falling back to
// the token query parameter used by browser websockets.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

// NewJwtMiddleware authenticates requests and stores user_id, email,
// token_id and token_exp in Locals. revoked may be nil.
func NewJwtMiddleware(secret string, revoked RevocationChecker) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}

		if revoked != nil && claims.TokenID != "" {
			isRevoked, err := revoked.IsRevoked(ctx.UserContext(), claims.TokenID)
			if err != nil {
				return err
			}
			if isRevoked {
				return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Token has been revoked"))
			}
		}

		ctx.Locals("user_id", claims.UserID)
		ctx.Locals("email", claims.Email)
		ctx.Locals("token_id", claims.TokenID)
		ctx.Locals("token_exp", claims.ExpiresAt)
		return ctx.Next()
	}
}
