package catalog

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/params"
	"github.com/sahilchouksey/learnpath/utils/response"
	"github.com/sahilchouksey/learnpath/utils/validation"
)

// CatalogHandler exposes majors, subjects, lessons, exams and questions.
// Reads are public; writes are mounted behind RequireAdmin.
type CatalogHandler struct {
	validator      *validation.Validator
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		validator:      validation.NewValidator(),
		catalogService: catalogService,
	}
}

// decode parses and validates the body into dst. On failure the error
// response is already written and ok is false.
func (h *CatalogHandler) decode(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(dst); err != nil {
		return false, response.ValidationError(c, err)
	}
	return true, nil
}

// optionalBool converts a loosely typed JSON flag. An absent flag stays nil.
func optionalBool(name string, v interface{}) (*bool, error) {
	if v == nil {
		return nil, nil
	}
	b, err := params.Bool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	return &b, nil
}

func invalidFlag(c *fiber.Ctx, err error) error {
	return response.Error(c, fiber.StatusBadRequest, err.Error(), "INVALID_INPUT")
}

// The request types below shadow the typed flags of the service inputs so
// "true", 1 and true are all accepted.

type majorRequest struct {
	services.MajorInput
	IsActive interface{} `json:"is_active"`
}

func (r *majorRequest) input() (services.MajorInput, error) {
	in := r.MajorInput
	var err error
	in.IsActive, err = optionalBool("is_active", r.IsActive)
	return in, err
}

type subjectRequest struct {
	services.SubjectInput
	IsActive interface{} `json:"is_active"`
}

func (r *subjectRequest) input() (services.SubjectInput, error) {
	in := r.SubjectInput
	var err error
	in.IsActive, err = optionalBool("is_active", r.IsActive)
	return in, err
}

type lessonRequest struct {
	services.LessonInput
	IsActive interface{} `json:"is_active"`
}

func (r *lessonRequest) input() (services.LessonInput, error) {
	in := r.LessonInput
	var err error
	in.IsActive, err = optionalBool("is_active", r.IsActive)
	return in, err
}

type examRequest struct {
	services.ExamInput
	IsRequired interface{} `json:"is_required"`
	IsActive   interface{} `json:"is_active"`
}

func (r *examRequest) input() (services.ExamInput, error) {
	in := r.ExamInput
	required, err := optionalBool("is_required", r.IsRequired)
	if err != nil {
		return in, err
	}
	in.IsRequired = required != nil && *required
	in.IsActive, err = optionalBool("is_active", r.IsActive)
	return in, err
}

// ==================== Majors ====================

// ListMajors handles GET /api/v1/majors
func (h *CatalogHandler) ListMajors(c *fiber.Ctx) error {
	majors, err := h.catalogService.ListMajors(c.UserContext(), true)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, majors)
}

// ListAllMajors handles GET /api/v1/admin/majors, inactive ones included
func (h *CatalogHandler) ListAllMajors(c *fiber.Ctx) error {
	majors, err := h.catalogService.ListMajors(c.UserContext(), false)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, majors)
}

// GetMajor handles GET /api/v1/majors/:id
func (h *CatalogHandler) GetMajor(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}
	major, err := h.catalogService.GetMajor(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, major)
}

// CreateMajor handles POST /api/v1/majors
func (h *CatalogHandler) CreateMajor(c *fiber.Ctx) error {
	var req majorRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	major, err := h.catalogService.CreateMajor(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, major)
}

// UpdateMajor handles PUT /api/v1/majors/:id
func (h *CatalogHandler) UpdateMajor(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}
	var req majorRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	major, err := h.catalogService.UpdateMajor(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, major)
}

// DeleteMajor handles DELETE /api/v1/majors/:id
func (h *CatalogHandler) DeleteMajor(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}
	if err := h.catalogService.DeleteMajor(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Major deleted", nil)
}

// ==================== Subjects ====================

// ListSubjects handles GET /api/v1/majors/:id/subjects
func (h *CatalogHandler) ListSubjects(c *fiber.Ctx) error {
	majorID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}
	subjects, err := h.catalogService.ListSubjects(c.UserContext(), majorID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subjects)
}

// GetSubject handles GET /api/v1/subjects/:id
func (h *CatalogHandler) GetSubject(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	subject, err := h.catalogService.GetSubject(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subject)
}

// CreateSubject handles POST /api/v1/majors/:id/subjects
func (h *CatalogHandler) CreateSubject(c *fiber.Ctx) error {
	majorID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid major ID")
	}
	var req subjectRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	subject, err := h.catalogService.CreateSubject(c.UserContext(), majorID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, subject)
}

// UpdateSubject handles PUT /api/v1/subjects/:id
func (h *CatalogHandler) UpdateSubject(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	var req subjectRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	subject, err := h.catalogService.UpdateSubject(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subject)
}

// DeleteSubject handles DELETE /api/v1/subjects/:id
func (h *CatalogHandler) DeleteSubject(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	if err := h.catalogService.DeleteSubject(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Subject deleted", nil)
}

// ==================== Lessons ====================

// ListLessons handles GET /api/v1/subjects/:id/lessons
func (h *CatalogHandler) ListLessons(c *fiber.Ctx) error {
	subjectID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	lessons, err := h.catalogService.ListLessons(c.UserContext(), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lessons)
}

// GetLesson handles GET /api/v1/lessons/:id
func (h *CatalogHandler) GetLesson(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	lesson, err := h.catalogService.GetLesson(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lesson)
}

// CreateLesson handles POST /api/v1/subjects/:id/lessons
func (h *CatalogHandler) CreateLesson(c *fiber.Ctx) error {
	subjectID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}
	var req lessonRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	lesson, err := h.catalogService.CreateLesson(c.UserContext(), subjectID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/v1/lessons/:id
func (h *CatalogHandler) UpdateLesson(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	var req lessonRequest
	if ok, err := h.decode(c, &req); !ok {
		return err
	}
	in, err := req.input()
	if err != nil {
		return invalidFlag(c, err)
	}
	lesson, err := h.catalogService.UpdateLesson(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, lesson)
}

// DeleteLesson handles DELETE /api/v1/lessons/:id
func (h *CatalogHandler) DeleteLesson(c *fiber.Ctx) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}
	if err := h.catalogService.DeleteLesson(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Lesson deleted", nil)
}
