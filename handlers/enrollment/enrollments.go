package enrollment

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"github.com/sahilchouksey/learnpath/utils/params"
	"github.com/sahilchouksey/learnpath/utils/response"
)

// EnrollmentHandler handles enrollment requests for the current user
type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// Enroll handles POST /api/v1/majors/:id/enroll
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	majorID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}

	enrollment, err := h.enrollmentService.Enroll(c.UserContext(), middleware.GetUserID(c), majorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, enrollment)
}

// Unenroll handles DELETE /api/v1/majors/:id/enroll
func (h *EnrollmentHandler) Unenroll(c *fiber.Ctx) error {
	majorID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}

	if err := h.enrollmentService.Unenroll(c.UserContext(), middleware.GetUserID(c), majorID); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Unenrolled", nil)
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	enrollments, err := h.enrollmentService.ListEnrollments(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, enrollments)
}
