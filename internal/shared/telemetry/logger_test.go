package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("ledger.recorded", map[string]any{"userId": "u1", "count": 3})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log json: %v (%q)", err, buf.String())
	}
	for _, key := range []string{"ts", "level", "msg", "userId", "count"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field %s in %v", key, payload)
		}
	}
	if payload["level"] != "info" || payload["msg"] != "ledger.recorded" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestSetLevelFiltersLines(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	SetLevel("warn")
	defer SetLevel("info")

	Info("dropped", nil)
	Warn("kept", nil)

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected output: %q", out)
	}
}
