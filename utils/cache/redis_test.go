package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("memcached://localhost:11211")
	assert.Error(t, err)
}
