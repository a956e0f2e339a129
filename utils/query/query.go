package queryHelper

import (
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// PageFrom reads ?page= and ?limit=. Bad values fall back to page 1 and the
// default limit.
func PageFrom(c *fiber.Ctx) Page {
	p := Page{
		Page:  cast.ToInt(c.Query("page", "1")),
		Limit: cast.ToInt(c.Query("limit", "20")),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		p.Limit = defaultLimit
	}
	return p
}

// Offset is the number of rows before this page
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate is a gorm scope applying the page's offset and limit
func Paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// Equal adds "column = value" when value is non-empty
func Equal(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}
