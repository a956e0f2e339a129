package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdminAuditLog records the admin request after the handler ran.
// A logging failure never changes the response.
func AdminAuditLog(db *gorm.DB, log *zap.Logger, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return c.Next()
		}

		var payload datatypes.JSON
		if body := c.Body(); len(body) > 0 && json.Valid(body) {
			payload = datatypes.JSON(append([]byte(nil), body...))
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		entry := model.AdminAuditLog{
			AdminID:     user.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  cast.ToUint(c.Params("id")),
			Payload:     payload,
			StatusCode:  status,
			IPAddress:   c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
			Description: c.Method() + " " + c.Path(),
		}
		if dbErr := db.WithContext(c.Context()).Create(&entry).Error; dbErr != nil {
			log.Warn("failed to write admin audit log",
				zap.String("action", action),
				zap.Uint("admin_id", user.ID),
				zap.Error(dbErr))
		}

		return err
	}
}
