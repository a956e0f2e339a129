package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"github.com/sahilchouksey/learnpath/utils/response"
	"gorm.io/gorm"
)

// Locals keys set by Required
const (
	LocalUserID = "user_id"
	LocalUser   = "user"
	LocalClaims = "claims"
	LocalJTI    = "token_jti"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	blacklist  *auth.Blacklist
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, blacklist *auth.Blacklist, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
		db:         db,
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// authenticate resolves the request's access token to a user, or writes
// the 401/500 response and returns a nil user.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *auth.Claims, error) {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return nil, nil, response.Unauthorized(c, "Missing authorization token")
	}
	tokenString, ok := BearerToken(c)
	if !ok {
		return nil, nil, response.Unauthorized(c, "Invalid authorization format")
	}

	claims, err := m.jwtManager.Validate(tokenString, auth.TokenTypeAccess)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return nil, nil, response.Unauthorized(c, "Token has expired")
	case errors.Is(err, auth.ErrWrongTokenUse):
		return nil, nil, response.Unauthorized(c, "Invalid token type")
	case err != nil:
		return nil, nil, response.Unauthorized(c, "Invalid token")
	}

	revoked, err := m.blacklist.IsRevoked(c.Context(), claims.ID)
	if err != nil {
		return nil, nil, response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return nil, nil, response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := m.db.WithContext(c.Context()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.Unauthorized(c, "User not found")
		}
		return nil, nil, response.InternalServerError(c, "Failed to load user")
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, response.Unauthorized(c, "Token has been invalidated")
	}

	return &user, claims, nil
}

// Required is middleware that requires a valid access token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := m.authenticate(c)
		if user == nil {
			return err
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUser, user)
		c.Locals(LocalClaims, claims)
		c.Locals(LocalJTI, claims.ID)

		return c.Next()
	}
}

// RequireAdmin must run after Required
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Authentication required")
		}
		if !user.IsAdmin() {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetUserID returns the authenticated user's id, or 0
func GetUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// GetUser returns the authenticated user, or nil
func GetUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(LocalUser).(*model.User)
	return user
}

// GetClaims returns the access-token claims, or nil
func GetClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(LocalClaims).(*auth.Claims)
	return claims
}

// GetTokenJTI returns the access-token id
func GetTokenJTI(c *fiber.Ctx) string {
	jti, _ := c.Locals(LocalJTI).(string)
	return jti
}
