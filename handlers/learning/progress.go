package learning

import (
	"encoding/base64"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"github.com/sahilchouksey/learnpath/utils/params"
	"github.com/sahilchouksey/learnpath/utils/response"
)

const maxImageBytes = 5 << 20

// LearningHandler serves lesson progress and subject outlines
type LearningHandler struct {
	progress *services.ProgressService
	face     *services.FaceCheckpoint
	outline  *services.OutlineService
}

// NewLearningHandler creates a new learning handler
func NewLearningHandler(progress *services.ProgressService, face *services.FaceCheckpoint, outline *services.OutlineService) *LearningHandler {
	return &LearningHandler{
		progress: progress,
		face:     face,
		outline:  outline,
	}
}

// WatchTimeRequest carries the absolute watch position in minutes.
// It is decoded loosely so "12.5" and 12.5 are both accepted.
type WatchTimeRequest struct {
	WatchTime interface{} `json:"watch_time"`
}

// VerifyAfterRequest carries a base64 encoded face image
type VerifyAfterRequest struct {
	Image string `json:"image"`
}

// VerifyAfterResponse reports the face match alongside the updated row
type VerifyAfterResponse struct {
	Progress   interface{} `json:"progress"`
	Match      bool        `json:"match"`
	Confidence float64     `json:"confidence"`
}

// StartLesson handles POST /api/v1/lessons/:id/start
func (h *LearningHandler) StartLesson(c *fiber.Ctx) error {
	lessonID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	progress, err := h.progress.StartLesson(c.UserContext(), middleware.GetUserID(c), lessonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, progress)
}

// UpdateWatchTime handles PUT /api/v1/lessons/:id/watch-time
func (h *LearningHandler) UpdateWatchTime(c *fiber.Ctx) error {
	lessonID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	var req WatchTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	watchTime, err := params.Float(req.WatchTime)
	if err != nil {
		return response.ErrorWithDetails(c, fiber.StatusBadRequest,
			"watch_time must be a number", "INVALID_INPUT", fiber.Map{"watch_time": err.Error()})
	}

	result, err := h.progress.UpdateWatchTime(c.UserContext(), middleware.GetUserID(c), lessonID, watchTime)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result)
}

// VerifyAfter handles POST /api/v1/lessons/:id/verify-after. The image comes
// either as a multipart "image" file or as base64 in a JSON body.
func (h *LearningHandler) VerifyAfter(c *fiber.Ctx) error {
	lessonID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	image, err := readImage(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	progress, match, err := h.face.VerifyAfter(c.UserContext(), middleware.GetUserID(c), lessonID, image)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Face verified", VerifyAfterResponse{
		Progress:   progress,
		Match:      match.Match,
		Confidence: match.Confidence,
	})
}

// CompleteLesson handles POST /api/v1/lessons/:id/complete
func (h *LearningHandler) CompleteLesson(c *fiber.Ctx) error {
	lessonID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	progress, err := h.progress.CompleteLesson(c.UserContext(), middleware.GetUserID(c), lessonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Lesson completed", progress)
}

// GetProgress handles GET /api/v1/lessons/:id/progress
func (h *LearningHandler) GetProgress(c *fiber.Ctx) error {
	lessonID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid lesson ID")
	}

	progress, err := h.progress.GetProgress(c.UserContext(), middleware.GetUserID(c), lessonID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, progress)
}

// GetOutline handles GET /api/v1/subjects/:id/outline
func (h *LearningHandler) GetOutline(c *fiber.Ctx) error {
	subjectID, err := params.ID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	outline, err := h.outline.Outline(c.UserContext(), middleware.GetUserID(c), subjectID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, outline)
}

func readImage(c *fiber.Ctx) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxImageBytes {
			return nil, fiber.NewError(fiber.StatusBadRequest, "image is too large")
		}
		f, err := file.Open()
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read image")
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImageBytes))
	}

	var req VerifyAfterRequest
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "image is required")
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "image must be base64 encoded")
	}
	if len(image) > maxImageBytes {
		return nil, fiber.NewError(fiber.StatusBadRequest, "image is too large")
	}
	return image, nil
}
