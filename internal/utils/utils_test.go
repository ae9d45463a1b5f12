package utils

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_456_789, time.FixedZone("x", 3600))
	text := FormatTimestamp(ts)
	if text != "2024-03-09T13:05:07.123Z" {
		t.Fatalf("unexpected format %q", text)
	}
	parsed, err := ParseTimestamp(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.Equal(ts.Truncate(time.Millisecond)) {
		t.Fatalf("expected %v, got %v", ts.Truncate(time.Millisecond), parsed)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	if _, err := ParseTimestamp(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for garbage value")
	}
}

func TestValidationErrorDetection(t *testing.T) {
	err := fmt.Errorf("commit: %w", NewValidationError("salary", "1.5", "Decimals are not allowed for salary values."))
	if !IsValidation(err) {
		t.Fatalf("expected validation error to be detected through wrapping")
	}
	if IsValidation(ErrNotFound) {
		t.Fatalf("not found must not be classified as validation")
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewAppError("annotations.load", "decode payload", ErrPersistence)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected wrapped sentinel")
	}
	if !strings.Contains(err.Error(), "annotations.load: decode payload") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestNewLoggerToHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn", true)
	logger.Info("hidden")
	logger.Warn("shown", slog.Int("id", 7))
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"id":7`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
