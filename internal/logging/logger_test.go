package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_RejectsBadInput(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	if err := Setup(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Setup(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFromContext_AddsMentionFields(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := Setup(&buf, "debug", "json"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ctx := WithComponent(WithMention(context.Background(), 1234), "bot.orchestrator")
	FromContext(ctx).Info("claimed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record["mention_id"] != float64(1234) {
		t.Errorf("expected mention_id 1234, got %v", record["mention_id"])
	}
	if record["component"] != "bot.orchestrator" {
		t.Errorf("expected component, got %v", record["component"])
	}
	if traceID, _ := record["trace_id"].(string); len(traceID) != 36 {
		t.Errorf("expected uuid trace_id, got %v", record["trace_id"])
	}
}

func TestFromContext_PlainContext(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	_ = Setup(&buf, "info", "text")
	FromContext(context.Background()).Info("hello")

	if strings.Contains(buf.String(), "mention_id") {
		t.Errorf("expected no mention fields, got %q", buf.String())
	}
}
