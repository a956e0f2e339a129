package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"github.com/sahilchouksey/learnpath/utils/params"
	queryHelper "github.com/sahilchouksey/learnpath/utils/query"
	"github.com/sahilchouksey/learnpath/utils/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers handles GET /api/v1/admin/users?role=&search=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := queryHelper.PageFrom(c)

	query := h.db.WithContext(c.UserContext()).Model(&model.User{})
	query = query.Scopes(queryHelper.Equal("role", c.Query("role")))
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	if err := query.Order("created_at DESC, id DESC").
		Scopes(queryHelper.Paginate(page)).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(page.Page, page.Limit, total))
}

// UpdateUserRole handles PUT /api/v1/admin/users/:id/role. The user's
// existing tokens are invalidated so the new role takes effect at once.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Role != model.RoleStudent && req.Role != model.RoleAdmin {
		return response.BadRequest(c, "Invalid role. Must be 'student' or 'admin'")
	}
	if id == middleware.GetUserID(c) {
		return response.BadRequest(c, "You cannot change your own role")
	}

	var user model.User
	if err := h.db.WithContext(c.UserContext()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role != req.Role {
		if err := h.db.WithContext(c.UserContext()).Model(&user).Update("role", req.Role).Error; err != nil {
			return response.InternalServerError(c, "Failed to update role")
		}
		if err := h.blacklist.RevokeAll(c.UserContext(), user.ID); err != nil {
			h.log.Error("failed to invalidate tokens after role change", zap.Uint("user_id", user.ID), zap.Error(err))
			return response.InternalServerError(c, "Failed to invalidate tokens")
		}
		user.Role = req.Role
	}

	return response.Success(c, user)
}
