package metrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func fixedSink(buf *bytes.Buffer) *Sink {
	s := NewSink(buf)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestRecorder_FlushOutput(t *testing.T) {
	var buf bytes.Buffer
	rec := fixedSink(&buf).Recorder()
	rec.Dimension("TestNumber", "2")
	rec.Metric(RunDurationMs, 1234.5, UnitMilliseconds)
	rec.Count(FramesCaptured, 9)
	rec.Property("runId", "abc-123")
	rec.Flush()

	output := buf.String()
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", output)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, output)
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if awsMap["Timestamp"] != float64(1700000000000) {
		t.Errorf("unexpected Timestamp %v", awsMap["Timestamp"])
	}

	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}
	defs := cw["Metrics"].([]interface{})
	if len(defs) != 2 || defs[0].(map[string]interface{})["Name"] != FramesCaptured {
		t.Errorf("expected sorted metric definitions, got %v", defs)
	}

	if doc["TestNumber"] != "2" {
		t.Errorf("expected TestNumber=2, got %v", doc["TestNumber"])
	}
	if doc[RunDurationMs] != 1234.5 {
		t.Errorf("expected RunDurationMs=1234.5, got %v", doc[RunDurationMs])
	}
	if doc[FramesCaptured] != float64(9) {
		t.Errorf("expected FramesCaptured=9, got %v", doc[FramesCaptured])
	}
	if doc["runId"] != "abc-123" {
		t.Errorf("expected runId=abc-123, got %v", doc["runId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	fixedSink(&buf).Recorder().Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_NilSink(t *testing.T) {
	var s *Sink
	// Must not panic.
	s.Recorder().Count(CaptureMisses, 1).Flush()
}

func TestRecorder_Duration(t *testing.T) {
	rec := NewSink(&bytes.Buffer{}).Recorder()
	rec.Duration(SubmitLatencyMs, 1500*time.Millisecond)

	if v := rec.values[SubmitLatencyMs]; v != float64(1500) {
		t.Errorf("expected 1500, got %v", v)
	}
	if m := rec.metrics[SubmitLatencyMs]; m.Unit != UnitMilliseconds {
		t.Errorf("expected unit Milliseconds, got %v", m.Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	rec := NewSink(&bytes.Buffer{}).Recorder().
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls", 1).
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
