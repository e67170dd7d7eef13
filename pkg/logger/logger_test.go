package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
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
	if Named("test") == nil {
		t.Fatal("named logger is nil")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithFormat("JSON"), WithOutput(&buf)).Named("scoring")

	l.Info(context.Background(), "round scored", String("card", "c1"), Int("points", 7), Error(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v: %q", err, buf.String())
	}
	if rec["msg"] != "round scored" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["logger"] != "scoring" {
		t.Errorf("logger = %v", rec["logger"])
	}
	if rec["points"] != float64(7) {
		t.Errorf("points = %v", rec["points"])
	}
	src, _ := rec["source"].(string)
	if !strings.Contains(src, "logger_test.go:") {
		t.Errorf("source = %q, want this file", src)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	l := New(WithOutput(&buf), WithLevelVar(lv), WithSource(false))

	ctx := context.Background()
	l.Info(ctx, "hidden")
	l.Debug(ctx, "hidden")
	l.Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("records below the level were written: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}
	if strings.Contains(out, "source=") {
		t.Errorf("source attribute should be off: %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(WithOutput(&bytes.Buffer{})); err != nil {
		t.Fatal(err)
	}
	for _, in := range []string{"debug", "INFO", " warning ", "error", ""} {
		if err := SetLevelString(in); err != nil {
			t.Errorf("SetLevelString(%q) = %v", in, err)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if lvl, _ := ParseLevel("warn"); lvl != slog.LevelWarn {
		t.Errorf("ParseLevel(warn) = %v", lvl)
	}
}

func TestNop(t *testing.T) {
	Nop().Error(context.Background(), "discarded")
}
