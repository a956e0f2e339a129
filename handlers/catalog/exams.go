package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/params"
	"github.com/sahilchouksey/learnpath/utils/response"
)

// ExamSummary is the public view of an exam, without questions
type ExamSummary struct {
	ID           uint   `json:"id"`
	SubjectID    uint   `json:"subject_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	PassingScore int    `json:"passing_score"`
	IsRequired   bool   `json:"is_required"`
	Order        int    `json:"order"`
	IsActive     bool   `json:"is_active"`
}

// ListExams handles GET /api/v1/subjects/:id/exams
func (h *CatalogHandler) ListExams(c *fiber.Ctx) error {
	subjectID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	exams, err := h.catalogService.ListExams(c.UserContext(), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}

	out := make([]ExamSummary, 0, len(exams))
	for _, e := range exams {
		out = append(out, ExamSummary{
			ID:           e.ID,
			SubjectID:    e.SubjectID,
			Name:         e.Name,
			Description:  e.Description,
			Duration:     e.Duration,
			PassingScore: e.PassingScore,
			IsRequired:   e.IsRequired,
			Order:        e.Order,
			IsActive:     e.IsActive,
		})
	}
	return response.Success(c, out)
}

// GetExam handles GET /api/v1/admin/exams/:id. The result carries the
// questions with their answer key.
func (h *CatalogHandler) GetExam(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	exam, err := h.catalogService.GetExam(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, exam)
}

// CreateExam handles POST /api/v1/subjects/:id/exams
func (h *CatalogHandler) CreateExam(c *fiber.Ctx) error {
	subjectID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	var req examRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	exam, err := h.catalogService.CreateExam(c.UserContext(), subjectID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, exam)
}

// UpdateExam handles PUT /api/v1/exams/:id
func (h *CatalogHandler) UpdateExam(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	var req examRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	exam, err := h.catalogService.UpdateExam(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, exam)
}

// DeleteExam handles DELETE /api/v1/exams/:id
func (h *CatalogHandler) DeleteExam(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	if err := h.catalogService.DeleteExam(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Exam deleted", nil)
}

// ==================== Questions ====================

// ListQuestions handles GET /api/v1/exams/:id/questions (admin)
func (h *CatalogHandler) ListQuestions(c *fiber.Ctx) error {
	examID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	questions, err := h.catalogService.ListQuestions(c.UserContext(), examID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, questions)
}

// AddQuestion handles POST /api/v1/exams/:id/questions
func (h *CatalogHandler) AddQuestion(c *fiber.Ctx) error {
	examID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid exam ID")
	}
	var req services.QuestionInput
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	question, err := h.catalogService.AddQuestion(c.UserContext(), examID, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, question)
}

// UpdateQuestion handles PUT /api/v1/questions/:id
func (h *CatalogHandler) UpdateQuestion(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid question ID")
	}
	var req services.QuestionInput
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	question, err := h.catalogService.UpdateQuestion(c.UserContext(), id, req)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, question)
}

// DeleteQuestion handles DELETE /api/v1/questions/:id
func (h *CatalogHandler) DeleteQuestion(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid question ID")
	}
	if err := h.catalogService.DeleteQuestion(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Question deleted", nil)
}
