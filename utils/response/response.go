package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/utils/validation"
)

// Response represents a standardized API response
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information. Details carries structured context
// (required minutes, blocking prerequisite) when the failure has any.
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// CalculatePagination builds the page metadata for total rows
func CalculatePagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Paginated returns a page of items with its metadata
func Paginated(c *fiber.Ctx, items interface{}, pagination Pagination) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data: fiber.Map{
			"items":      items,
			"pagination": pagination,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return ErrorWithDetails(c, statusCode, message, code, nil)
}

// ErrorWithDetails returns an error response with details
func ErrorWithDetails(c *fiber.Ctx, statusCode int, message string, code string, details interface{}) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message, "CONFLICT")
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

// ValidationError returns a 422 Unprocessable Entity response for validation errors
func ValidationError(c *fiber.Ctx, err error) error {
	return ErrorWithDetails(c, fiber.StatusUnprocessableEntity,
		"Validation failed", "VALIDATION_ERROR", validation.FormatValidationErrors(err))
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// ServiceUnavailable returns a 503 Service Unavailable response
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message, "SERVICE_UNAVAILABLE")
}

var statusByKind = map[services.ErrorKind]int{
	services.KindNotFound:                 fiber.StatusNotFound,
	services.KindInactive:                 fiber.StatusNotFound,
	services.KindRequiresEnrollment:       fiber.StatusForbidden,
	services.KindLocked:                   fiber.StatusLocked,
	services.KindInsufficientWatchTime:    fiber.StatusUnprocessableEntity,
	services.KindRequiresFaceVerification: fiber.StatusPreconditionRequired,
	services.KindInvalidInput:             fiber.StatusBadRequest,
	services.KindBadRequest:               fiber.StatusBadRequest,
	services.KindForbidden:                fiber.StatusForbidden,
	services.KindAlreadySubmitted:         fiber.StatusConflict,
	services.KindNotSubmitted:             fiber.StatusConflict,
	services.KindConflict:                 fiber.StatusConflict,
}

// StatusFor returns the HTTP status for a service error kind
func StatusFor(kind services.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// FromError writes err as an error envelope. Service errors keep their kind
// as the code; anything else becomes a 500 without leaking internals.
func FromError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrFaceVerifierUnavailable) {
		return ServiceUnavailable(c, err.Error())
	}
	if errors.Is(err, services.ErrFaceServiceFailed) {
		return Error(c, fiber.StatusBadGateway, "Face verification service failed", "FACE_SERVICE_ERROR")
	}

	var appErr *services.AppError
	if !errors.As(err, &appErr) || appErr.Kind == services.KindInternal {
		return InternalServerError(c, "")
	}

	var details interface{}
	if len(appErr.Data) > 0 {
		details = appErr.Data
	}
	return ErrorWithDetails(c, StatusFor(appErr.Kind), appErr.Message, string(appErr.Kind), details)
}
