package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "empty", input: "", max: 10, want: ""},
		{name: "control characters removed", input: "a\x00b\x1bc", max: 10, want: "abc"},
		{name: "newline kept", input: "line1\nline2", max: 20, want: "line1\nline2"},
		{name: "truncated", input: "abcdefghij", max: 4, want: "abcd..."},
		{name: "multibyte not split", input: "ééé", max: 3, want: "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeString(tt.input, tt.max); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}

	long := errors.New(strings.Repeat("x", MaxErrorMessageLength+50))
	got := SanitizeError(long)
	if len(got) != MaxErrorMessageLength+3 {
		t.Errorf("Expected truncated length %d, got %d", MaxErrorMessageLength+3, len(got))
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("p", MaxPreviewLength*2)
	if got := Preview(content, false); len(got) != MaxPreviewLength+3 {
		t.Errorf("Expected preview of %d bytes, got %d", MaxPreviewLength+3, len(got))
	}
	if got := Preview(content, true); got != content {
		t.Error("Expected full content in debug mode")
	}
}
