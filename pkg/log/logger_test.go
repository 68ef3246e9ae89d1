package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	cperrors "github.com/YuminosukeSato/carprice/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologProvider_Levels(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)
	logger := p.GetLoggerWithName("ensemble")

	logger.Debug("hidden")
	logger.Info("fit completed", OperationKey, OperationFit, SamplesKey, 80)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %s", len(entries), buf.String())
	}
	e := entries[0]
	if e["message"] != "fit completed" {
		t.Errorf("message = %v", e["message"])
	}
	if e[ComponentKey] != "ensemble" {
		t.Errorf("component = %v", e[ComponentKey])
	}
	if e[SamplesKey] != 80.0 {
		t.Errorf("samples = %v", e[SamplesKey])
	}

	// SetLevel applies to loggers created earlier
	p.SetLevel(LevelDebug)
	if !logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug record missing after SetLevel")
	}
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, LevelDebug).GetLogger().With(
		ModelNameKey, "RandomForestRegressor",
		EstimatorIDKey, "rf-001",
	)
	logger.Info("predict", OperationKey, OperationPredict, PredsKey, 2)

	e := decodeLines(t, &buf)[0]
	if e[ModelNameKey] != "RandomForestRegressor" || e[EstimatorIDKey] != "rf-001" {
		t.Errorf("context fields missing: %v", e)
	}
	if e[OperationKey] != OperationPredict {
		t.Errorf("operation = %v", e[OperationKey])
	}
}

func TestZerologLogger_ErrorEmbedsTypedError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologProviderWithWriter(&buf, LevelInfo).GetLogger()

	err := cperrors.Wrap(cperrors.NewSchemaMismatchError("Predict", []string{"model"}, nil), "predict price")
	logger.Error("prediction failed", err, OperationKey, OperationPredict)

	e := decodeLines(t, &buf)[0]
	if e["level"] != "error" {
		t.Errorf("level = %v", e["level"])
	}
	if e["type"] != "SchemaMismatchError" {
		t.Errorf("expected typed error fields, got %v", e)
	}
	if !strings.Contains(fmt.Sprint(e["error"]), "missing columns [model]") {
		t.Errorf("error = %v", e["error"])
	}
}

func TestSetupLogger_RoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	if err := SetupLogger(&buf, "warn"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		SetProvider(nil)
		cperrors.SetZerologWarnFunc(nil)
	}()

	cperrors.Warn(cperrors.NewUndefinedMetricWarning("r2", "constant y_true", 0))

	e := decodeLines(t, &buf)[0]
	if e[ComponentKey] != "warnings" {
		t.Errorf("component = %v", e[ComponentKey])
	}
	if !strings.Contains(fmt.Sprint(e["message"]), "'r2' is ill-defined") {
		t.Errorf("message = %v", e["message"])
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ToLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTestLogger(t *testing.T) {
	provider, logger := NewTestLoggerProvider(LevelInfo)
	named := provider.GetLoggerWithName("dataset")

	named.Debug("debug-only record")
	named.Info("rows dropped", RowsDroppedKey, 1)
	named.Error("load failed", fmt.Errorf("boom"))

	if logger.ContainsMessage("debug-only record") {
		t.Error("debug record should be filtered")
	}
	if !logger.ContainsField(RowsDroppedKey, 1.0) {
		t.Error("rows dropped field missing")
	}
	if !logger.ContainsField("error", "boom") {
		t.Error("error field missing")
	}
	if !logger.ContainsField(ComponentKey, "dataset") {
		t.Error("component field missing")
	}
}
