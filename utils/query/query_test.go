package queryHelper

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageFrom(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Page: 1, Limit: 20}},
		{"?page=3&limit=50", Page{Page: 3, Limit: 50}},
		{"?page=0&limit=0", Page{Page: 1, Limit: 20}},
		{"?page=abc&limit=500", Page{Page: 1, Limit: 20}},
		{"?page=-2&limit=100", Page{Page: 1, Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got Page
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = PageFrom(c)
				return c.SendStatus(fiber.StatusNoContent)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			require.NoError(t, err)
			io.Copy(io.Discard, resp.Body)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Page{Page: 3, Limit: 20}.Offset())
}
