package exam

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"github.com/sahilchouksey/learnpath/utils/params"
	"github.com/sahilchouksey/learnpath/utils/response"
)

// ExamHandler serves the student side of exams
type ExamHandler struct {
	examService *services.ExamService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(examService *services.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// SubmitRequest maps question id to the chosen answer
type SubmitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// StartExam handles POST /api/v1/exams/:id/start
func (h *ExamHandler) StartExam(c *fiber.Ctx) error {
	examID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}

	result, err := h.examService.StartExam(c.UserContext(), middleware.GetUserID(c), examID)
	if err != nil {
		return response.FromError(c, err)
	}
	if result.AlreadyPassed {
		return response.SuccessWithMessage(c, "Exam already passed", result)
	}
	return response.Created(c, result)
}

// SubmitExam handles POST /api/v1/exams/:id/attempts/:attempt_id/submit
func (h *ExamHandler) SubmitExam(c *fiber.Ctx) error {
	examID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	attemptID, err := params.ID(c, "attempt_id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	answers, err := params.Answers(req.Answers)
	if err != nil {
		return response.ErrorWithDetails(c, fiber.StatusBadRequest,
			"Invalid answers", "INVALID_INPUT", fiber.Map{"answers": err.Error()})
	}

	grade, err := h.examService.SubmitExam(c.UserContext(), middleware.GetUserID(c), attemptID, examID, answers)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Exam submitted", grade)
}

// GetAttemptResult handles GET /api/v1/attempts/:attempt_id/result
func (h *ExamHandler) GetAttemptResult(c *fiber.Ctx) error {
	attemptID, err := params.ID(c, "attempt_id")
	if err != nil {
		return response.BadRequest(c, "Invalid attempt ID")
	}

	result, err := h.examService.GetAttemptResult(c.UserContext(), middleware.GetUserID(c), attemptID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result)
}

// ListAttempts handles GET /api/v1/exams/:id/attempts
func (h *ExamHandler) ListAttempts(c *fiber.Ctx) error {
	examID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}

	attempts, err := h.examService.ListAttempts(c.UserContext(), middleware.GetUserID(c), examID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, attempts)
}
