package handlers

import (
	"fmt"
	"strings"

	"ipotrack/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIDLocal = "user_id"

// SignupPrompt is shown when an anonymous viewer tries a star action.
// The client renders it as a sign-up call to action instead of
// submitting the toggle.
const SignupPrompt = "Create an account to start tracking IPOs"

// AuthMiddleware verifies the HS256 session tokens issued by the
// hosted auth provider. The server never issues tokens itself; it only
// extracts the user id from the subject claim.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Optional attaches the user id when a valid token is present and
// passes everyone through either way. Listing endpoints use this so
// anonymous viewers get rows without starred flags.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := m.userIDFromRequest(c); err == nil && userID != "" {
			c.Locals(userIDLocal, userID)
		}
		return c.Next()
	}
}

// Required rejects anonymous requests with the sign-up prompt. Star
// actions from anonymous viewers never reach persistence.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := m.userIDFromRequest(c)
		if err != nil || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: SignupPrompt})
		}
		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

func (m *AuthMiddleware) userIDFromRequest(c *fiber.Ctx) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("auth is not configured")
	}

	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	return token.Claims.GetSubject()
}

// UserID returns the authenticated user id for the request, or ""
// for anonymous viewers.
func UserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(userIDLocal).(string); ok {
		return userID
	}
	return ""
}
