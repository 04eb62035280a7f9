package logging

import (
	"context"
	"testing"
)

func TestScanIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := ScanIDFromContext(ctx); got != "" {
		t.Errorf("empty context scan id = %q, want empty", got)
	}

	ctx = WithScanID(ctx, "scan-123")
	if got := ScanIDFromContext(ctx); got != "scan-123" {
		t.Errorf("scan id = %q, want scan-123", got)
	}
}

func TestFromContextNeverNil(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext returned nil for plain context")
	}
	if FromContext(WithScanID(context.Background(), "s")) == nil {
		t.Error("FromContext returned nil for scan context")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"WARN", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"nonsense", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
