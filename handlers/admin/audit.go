package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/sahilchouksey/learnpath/utils/params"
	queryHelper "github.com/sahilchouksey/learnpath/utils/query"
	"github.com/sahilchouksey/learnpath/utils/response"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// ListAuditLogs handles GET /api/v1/admin/audit-logs?action=&resource=&admin_id=
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page := queryHelper.PageFrom(c)

	query := h.db.WithContext(c.UserContext()).Model(&model.AdminAuditLog{})
	query = query.Scopes(
		queryHelper.Equal("action", c.Query("action")),
		queryHelper.Equal("resource", c.Query("resource")),
	)
	if adminID, err := cast.ToUintE(c.Query("admin_id")); err == nil && adminID > 0 {
		query = query.Where("admin_id = ?", adminID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	if err := query.Order("created_at DESC, id DESC").
		Scopes(queryHelper.Paginate(page)).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page.Page, page.Limit, total))
}

// GetAuditLog handles GET /api/v1/admin/audit-logs/:id
func (h *AdminHandler) GetAuditLog(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := h.db.WithContext(c.UserContext()).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}
	return response.Success(c, entry)
}
