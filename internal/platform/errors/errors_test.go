package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeMissingDataset, "load city stats", stderrors.New("file not found"))
	if !stderrors.Is(err, New(CodeMissingDataset, "other message")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeInvalidRecord, "load city stats")) {
		t.Fatal("expected errors.Is to reject a different code")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeMissingDataset, "load density", stderrors.New("boom"))
	if got := err.Error(); got != "load density: boom" {
		t.Fatalf("error = %q, want %q", got, "load density: boom")
	}
}

func TestCodeOfWrappedChain(t *testing.T) {
	inner := WithMetadata(CodeUnknownCity, "switch city", map[string]string{"city": "oslo"})
	wrapped := fmt.Errorf("handle frame: %w", inner)

	if got := CodeOf(wrapped); got != CodeUnknownCity {
		t.Fatalf("code = %q, want %q", got, CodeUnknownCity)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestFrameCode(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeInvalidArgument, "INVALID_ARGUMENT"},
		{CodeUnknownCity, "INVALID_ARGUMENT"},
		{CodeUnmappedStep, "NOT_FOUND"},
		{CodeMissingDataset, "UNAVAILABLE"},
		{CodeRateLimited, "RESOURCE_EXHAUSTED"},
		{CodeUnknown, "INTERNAL"},
	}
	for _, tt := range tests {
		if got := tt.code.FrameCode(); got != tt.want {
			t.Fatalf("FrameCode(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
