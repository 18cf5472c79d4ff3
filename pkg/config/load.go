package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of loading one value with Load.
type Result[T any] struct {
	Value T
	// Warning explains why the default replaced the environment value.
	Warning string
	// FallbackApplied reports that the environment value was rejected.
	FallbackApplied bool
}

// Load reads key, parses it and validates it. An unset key yields the default
// silently; a value that fails to parse or validate yields the default with a
// warning. Load never fails.
func Load[T any](key string, defaultValue T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Value: defaultValue}
	}
	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", key, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}
	return Result[T]{Value: v}
}

// String is a parse function for Load that accepts any value.
func String(s string) (string, error) { return s, nil }

// Int is a parse function for Load.
func Int(s string) (int, error) { return strconv.Atoi(s) }

// Duration is a parse function for Load.
func Duration(s string) (time.Duration, error) { return time.ParseDuration(s) }

// Bool is a parse function for Load.
func Bool(s string) (bool, error) { return strconv.ParseBool(s) }
