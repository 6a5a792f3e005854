package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/PabloGalante/solace/internal/observability"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger(&buf, "warn", "json")

	log.Info("hidden")
	log.Warn("shown", "session_id", "s1")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", out)
	}
	var line map[string]any
	if err := json.Unmarshal([]byte(out), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", out, err)
	}
	if line["session_id"] != "s1" {
		t.Fatalf("missing field in %v", line)
	}

	buf.Reset()
	observability.NewLogger(&buf, "debug", "text").Debug("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-1")
	if got := observability.RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := observability.RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
