package params

import (
	"io"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := ID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/items/42", fiber.StatusOK, `{"id":42}`},
		{"/items/0", fiber.StatusBadRequest, ""},
		{"/items/-3", fiber.StatusBadRequest, ""},
		{"/items/abc", fiber.StatusBadRequest, ""},
		{"/items/010", fiber.StatusBadRequest, ""},
		{"/items/0x10", fiber.StatusBadRequest, ""},
		{"/items/1e3", fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.JSONEq(t, tt.body, string(body))
			}
		})
	}
}

func TestBool(t *testing.T) {
	for _, v := range []interface{}{true, "true", " TRUE ", 1, "1"} {
		got, err := Bool(v)
		require.NoError(t, err, "%v", v)
		assert.True(t, got, "%v", v)
	}
	for _, v := range []interface{}{false, "false", 0, "0"} {
		got, err := Bool(v)
		require.NoError(t, err, "%v", v)
		assert.False(t, got, "%v", v)
	}

	for _, bad := range []interface{}{"maybe", "", "   ", nil} {
		_, err := Bool(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{60, 60},
		{"60", 60},
		{" 59.5 ", 59.5},
		{float64(12.25), 12.25},
	}
	for _, tt := range tests {
		got, err := Float(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9)
	}

	for _, bad := range []interface{}{nil, "sixty", "", "   ", true, false, math.NaN(), math.Inf(1)} {
		_, err := Float(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestAnswers(t *testing.T) {
	got, err := Answers(map[string]interface{}{
		"1": "B",
		"2": float64(3),
		"3": true,
		"4": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "B", "2": "3", "3": "true"}, got)

	_, err = Answers(map[string]interface{}{"first": "a"})
	assert.Error(t, err)

	_, err = Answers(map[string]interface{}{"010": "a"})
	assert.Error(t, err)

	_, err = Answers(map[string]interface{}{"1": []interface{}{"a"}})
	assert.Error(t, err)
}
