package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := Init(WithLevel("loud")); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithFormat(FormatJSON), WithOutput(&buf), WithLevel("debug"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Named("game").Debug(context.Background(), "count accepted",
		Int64("count", 7), Bool("personal_best", true), Error(errors.New("none")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "count accepted" || rec["component"] != "game" {
		t.Errorf("unexpected record: %v", rec)
	}
	if rec["count"] != float64(7) || rec["personal_best"] != true {
		t.Errorf("fields missing: %v", rec)
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %q, want the calling file", src)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithLevel("warn"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	l.Info(ctx, "hidden")
	l.With(String("channel", "1")).Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "channel=1") {
		t.Errorf("warn line missing: %s", out)
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q): %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Error(context.Background(), "dropped", String("k", "v"))
	l.Named("x").With(Int("n", 1)).Info(context.Background(), "dropped")
}
