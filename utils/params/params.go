// Package params converts loosely typed HTTP input into the typed values
// the services take.
package params

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

var ErrInvalidID = errors.New("invalid id")

// ID parses the named route parameter as a positive id
func ID(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidID, name)
	}
	n, err := parseID(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidID, name, raw)
	}
	return n, nil
}

// parseID reads a positive decimal id. Leading zeros and hex are not ids.
func parseID(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 || (len(raw) > 1 && raw[0] == '0') {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

// Bool accepts true/false, 1/0 and their string forms
func Bool(v interface{}) (bool, error) {
	if v == nil {
		return false, errors.New("value is required")
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
		if v == "" {
			return false, errors.New("value is empty")
		}
	}
	return cast.ToBoolE(v)
}

// Float accepts numbers and numeric strings. NaN and infinities are rejected.
func Float(v interface{}) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, errors.New("value is required")
	case bool:
		return 0, fmt.Errorf("%v is not a number", t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, errors.New("value is empty")
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return f, nil
}

// Answers normalizes a decoded JSON object into question id -> answer.
// Numeric and boolean answers are stringified; null answers are dropped.
func Answers(raw map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		id, err := parseID(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("answer key %q is not a question id", key)
		}
		answer, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("answer for question %s must be a string, number or boolean", key)
		}
		out[cast.ToString(id)] = answer
	}
	return out, nil
}
