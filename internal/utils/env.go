package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/simplecache/internal/logger"
)

// GetEnvAsString returns the trimmed value of an environment variable, or
// defaultVal when it is unset or blank.
func GetEnvAsString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

// warnInvalid reports an environment value that could not be parsed.
func warnInvalid(name, raw string, defaultVal any) {
	logger.Warn("invalid environment value, using default", "var", name, "value", raw, "default", defaultVal)
}

// GetEnvAsBool parses a boolean environment variable with a default.
func GetEnvAsBool(key string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	case "":
		return defaultVal
	default:
		warnInvalid(key, raw, defaultVal)
		return defaultVal
	}
}

// GetEnvAsInt retrieves an environment variable as an integer with a default fallback.
func GetEnvAsInt(name string, defaultVal int) int {
	valStr := strings.TrimSpace(os.Getenv(name))
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		warnInvalid(name, valStr, defaultVal)
		return defaultVal
	}
	return val
}

// GetEnvAsFloat retrieves an environment variable as a float64 with a default fallback.
func GetEnvAsFloat(name string, defaultVal float64) float64 {
	valStr := strings.TrimSpace(os.Getenv(name))
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		warnInvalid(name, valStr, defaultVal)
		return defaultVal
	}
	return val
}

// GetEnvAsMillis reads an integer number of milliseconds.
func GetEnvAsMillis(name string, defaultVal time.Duration) time.Duration {
	valStr := strings.TrimSpace(os.Getenv(name))
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		warnInvalid(name, valStr, defaultVal)
		return defaultVal
	}
	return time.Duration(val) * time.Millisecond
}

// GetEnvAsSlice splits an environment variable on sep, trimming each element
// and dropping empty ones.
func GetEnvAsSlice(name string, defaultVal []string, sep string) []string {
	valStr := strings.TrimSpace(os.Getenv(name))
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
