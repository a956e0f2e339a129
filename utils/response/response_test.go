package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (int, Response) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return FromError(c, err) })

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, testErr)
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	var body Response
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"locked", &services.AppError{Kind: services.KindLocked, Message: "locked"}, fiber.StatusLocked, "LOCKED"},
		{"watch time", &services.AppError{Kind: services.KindInsufficientWatchTime, Message: "watch more"}, fiber.StatusUnprocessableEntity, "INSUFFICIENT_WATCH_TIME"},
		{"face", &services.AppError{Kind: services.KindRequiresFaceVerification, Message: "verify"}, fiber.StatusPreconditionRequired, "REQUIRES_FACE_VERIFICATION"},
		{"inactive", &services.AppError{Kind: services.KindInactive, Message: "gone"}, fiber.StatusNotFound, "INACTIVE"},
		{"submitted", &services.AppError{Kind: services.KindAlreadySubmitted, Message: "done"}, fiber.StatusConflict, "ALREADY_SUBMITTED"},
		{"wrapped", fmt.Errorf("outer: %w", &services.AppError{Kind: services.KindForbidden, Message: "no"}), fiber.StatusForbidden, "FORBIDDEN"},
		{"internal kind", &services.AppError{Kind: services.KindInternal, Message: "db exploded"}, fiber.StatusInternalServerError, "INTERNAL_ERROR"},
		{"foreign", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
		{"no verifier", services.ErrFaceVerifierUnavailable, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"face service", fmt.Errorf("%w: status 500", services.ErrFaceServiceFailed), fiber.StatusBadGateway, "FACE_SERVICE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := render(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFromError_InternalHidesMessage(t *testing.T) {
	_, body := render(t, &services.AppError{Kind: services.KindInternal, Message: "db exploded"})
	require.NotNil(t, body.Error)
	assert.NotContains(t, body.Error.Message, "exploded")
}

func TestFromError_Details(t *testing.T) {
	err := &services.AppError{
		Kind:    services.KindInsufficientWatchTime,
		Message: "watch more",
		Data:    map[string]interface{}{"current": 10, "required": 60},
	}
	_, body := render(t, err)
	require.NotNil(t, body.Error)
	details, ok := body.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 60, details["required"])
}

func TestCalculatePagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 2, Limit: 20, Total: 41, TotalPages: 3}, CalculatePagination(2, 20, 41))
	assert.Equal(t, int64(0), CalculatePagination(1, 20, 0).TotalPages)
}
