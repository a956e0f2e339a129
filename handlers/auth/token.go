package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	authutil "github.com/sahilchouksey/learnpath/utils/auth"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"github.com/sahilchouksey/learnpath/utils/response"
	"go.uber.org/zap"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /api/v1/auth/refresh. The presented refresh
// token is revoked so it can be used only once.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	claims, err := h.jwtManager.Validate(req.RefreshToken, authutil.TokenTypeRefresh)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	revoked, err := h.blacklist.IsRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	if err := h.blacklist.Revoke(c.Context(), claims.ID, user.ID, claims.ExpiresAt.Time, "token_refresh"); err != nil {
		h.log.Error("failed to revoke refresh token", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to rotate tokens")
	}

	tokens, err := h.jwtManager.IssuePair(identityOf(&user))
	if err != nil {
		return response.InternalServerError(c, "Failed to generate tokens")
	}
	return response.Success(c, SessionResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout by revoking the access token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	claims := middleware.GetClaims(c)
	if user == nil || claims == nil {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.blacklist.Revoke(c.Context(), claims.ID, user.ID, claims.ExpiresAt.Time, "logout"); err != nil {
		h.log.Error("failed to revoke access token", zap.Uint("user_id", user.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.SuccessWithMessage(c, "Successfully logged out", nil)
}
