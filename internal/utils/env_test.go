package utils

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/simplecache/internal/logger"
)

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"1", false, true},
		{"TRUE", false, true},
		{" yes ", false, true},
		{"on", false, true},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := GetEnvAsBool("TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("GetEnvAsBool(%q, %v) = %v, want %v", tt.val, tt.def, got, tt.want)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", " 42 ")
	if got := GetEnvAsInt("TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("TEST_INT", "forty")
	if got := GetEnvAsInt("TEST_INT", 7); got != 7 {
		t.Fatalf("expected default on parse error, got %d", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.25")
	if got := GetEnvAsFloat("TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	t.Setenv("TEST_FLOAT", "")
	if got := GetEnvAsFloat("TEST_FLOAT", 1); got != 1 {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestGetEnvAsMillis(t *testing.T) {
	t.Setenv("TEST_MS", "1500")
	if got := GetEnvAsMillis("TEST_MS", time.Second); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", got)
	}
	t.Setenv("TEST_MS", "soon")
	if got := GetEnvAsMillis("TEST_MS", time.Second); got != time.Second {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	def := []string{"fallback"}
	tests := []struct {
		val  string
		want []string
	}{
		{"", def},
		{"a:6379", []string{"a:6379"}},
		{"a:6379, b:6379 ,,c:6379", []string{"a:6379", "b:6379", "c:6379"}},
		{" , ", def},
	}
	for _, tt := range tests {
		t.Setenv("TEST_SLICE", tt.val)
		if got := GetEnvAsSlice("TEST_SLICE", def, ","); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("GetEnvAsSlice(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestGetEnvAsString(t *testing.T) {
	t.Setenv("TEST_STR", "  value  ")
	if got := GetEnvAsString("TEST_STR", "def"); got != "value" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("TEST_STR", "   ")
	if got := GetEnvAsString("TEST_STR", "def"); got != "def" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestInvalidValuesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { logger.InitWithWriter(io.Discard, "info", "text") })

	t.Setenv("CACHE_MAX_ENTRIES", "lots")
	t.Setenv("CACHE_REMOTE_DISABLED", "sometimes")
	t.Setenv("REDIS_DIAL_TIMEOUT_MS", "2s")
	t.Setenv("OTEL_TRACE_SAMPLE_RATE", "half")

	if got := GetEnvAsInt("CACHE_MAX_ENTRIES", 100); got != 100 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := GetEnvAsBool("CACHE_REMOTE_DISABLED", false); got {
		t.Fatal("expected default false")
	}
	if got := GetEnvAsMillis("REDIS_DIAL_TIMEOUT_MS", time.Second); got != time.Second {
		t.Fatalf("expected default, got %v", got)
	}
	if got := GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1); got != 0.1 {
		t.Fatalf("expected default, got %v", got)
	}

	out := buf.String()
	for _, want := range []string{
		"var=CACHE_MAX_ENTRIES value=lots",
		"var=CACHE_REMOTE_DISABLED value=sometimes",
		"var=REDIS_DIAL_TIMEOUT_MS value=2s",
		"var=OTEL_TRACE_SAMPLE_RATE value=half",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output %q", want, out)
		}
	}

	buf.Reset()
	t.Setenv("CACHE_MAX_ENTRIES", "")
	GetEnvAsInt("CACHE_MAX_ENTRIES", 100)
	if buf.Len() != 0 {
		t.Errorf("unset variable must not warn, got %q", buf.String())
	}
}
