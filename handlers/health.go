package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/utils/response"
)

// HandleCheckHealth reports whether the entity store answers a ping
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := store.HealthCheck(ctx); err != nil {
		return response.ServiceUnavailable(c, "database unavailable")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
