package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

const claimsKey = "auth_claims"

const (
	msgNotAuthorized = "not authorized"
	msgInvalidToken  = "invalid token"
)

// TokenParser is the part of TokenManager the gate depends on.
type TokenParser interface {
	ParseToken(token string) (*Claims, error)
}

// AuthMiddleware validates bearer tokens and exposes their claims to handlers.
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.TrimSpace(authHeader) == "" {
		return apperrors.NewUnauthorized(msgNotAuthorized)
	}

	token, ok := bearerToken(authHeader)
	if !ok {
		return apperrors.NewUnauthorized(msgInvalidToken)
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized(msgInvalidToken)
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the authenticated caller.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
