package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/model"
	queryHelper "github.com/sahilchouksey/learnpath/utils/query"
	"github.com/sahilchouksey/learnpath/utils/response"
)

// ListJobLogs handles GET /api/v1/admin/jobs/logs?job=
func (h *AdminHandler) ListJobLogs(c *fiber.Ctx) error {
	page := queryHelper.PageFrom(c)

	query := h.db.WithContext(c.UserContext()).Model(&model.CronJobLog{})
	query = query.Scopes(queryHelper.Equal("job_name", c.Query("job")))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count job logs")
	}

	var logs []model.CronJobLog
	if err := query.Order("started_at DESC, id DESC").
		Scopes(queryHelper.Paginate(page)).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch job logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page.Page, page.Limit, total))
}

// RunJob handles POST /api/v1/admin/jobs/:name/run. The job runs to
// completion before the response is sent.
func (h *AdminHandler) RunJob(c *fiber.Ctx) error {
	if h.cron == nil {
		return response.ServiceUnavailable(c, "Background jobs are disabled")
	}
	name := c.Params("name")
	if !h.cron.Run(name) {
		return response.NotFound(c, "Unknown job: "+name)
	}
	return response.SuccessWithMessage(c, "Job finished", fiber.Map{"job": name})
}

// ListJobs handles GET /api/v1/admin/jobs
func (h *AdminHandler) ListJobs(c *fiber.Ctx) error {
	if h.cron == nil {
		return response.Success(c, fiber.Map{"enabled": false, "jobs": []string{}})
	}
	return response.Success(c, fiber.Map{"enabled": true, "jobs": h.cron.JobNames()})
}
