package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/embedd/internal/models"
)

func sampleResponse() *models.EmbeddingResponse {
	return &models.EmbeddingResponse{
		Embeddings: [][]float32{{0.6, 0.8}, {1, 0, 0, 0, 0, 0, 0, 0}},
		Count:      2,
		TimeMs:     4,
		AvgTimeMs:  2,
		Success:    true,
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "compact"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}

func TestWriteEmbeddings_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmbeddings(&buf, sampleResponse(), nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.EmbeddingResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 2 || !decoded.Success || len(decoded.Embeddings[1]) != 8 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWriteEmbeddings_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmbeddings(&buf, sampleResponse(), nil, OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "[0.6,0.8]" {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestWriteEmbeddings_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmbeddings(&buf, sampleResponse(), []string{"hello", "world"}, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Embedded 2 texts", `#0 "hello"`, "dim=8", "0.6000, 0.8000]", ", ...]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.EngineStatus{State: "degraded", Initialized: true, Provider: "CPUExecutionProvider",
		Dimension: 768, MaxBatchSize: 32, LastError: "inference backend error: boom", ArtifactBytes: 1024}

	var text bytes.Buffer
	_ = WriteStatus(&text, st, OutputText)
	for _, want := range []string{"state:           degraded", "provider:        CPUExecutionProvider", "last_error:", "artifact_bytes:  1024"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var compact bytes.Buffer
	_ = WriteStatus(&compact, st, OutputCompact)
	if !strings.HasPrefix(compact.String(), "state=degraded initialized=true") {
		t.Errorf("compact = %q", compact.String())
	}
}

func TestWriteRuns(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []*models.Run{
		{ID: "1", Count: 10, TotalTimeMs: 5, Status: models.RunStatusOK, Provider: "CPUExecutionProvider", CreatedAt: at},
		{ID: "2", Count: 3, Status: models.RunStatusError, ErrorKind: "backend", CreatedAt: at},
	}
	stats := &models.RunStats{Runs: 2, Texts: 13, Failures: 1, AvgTimeMs: 0.5}

	var text bytes.Buffer
	_ = WriteRuns(&text, runs, stats, OutputText)
	out := text.String()
	if !strings.Contains(out, "2026-03-01 12:00:00") || !strings.Contains(out, "(backend)") {
		t.Errorf("text output:\n%s", out)
	}
	if !strings.Contains(out, "runs: 2  texts: 13  failures: 1") {
		t.Errorf("stats line missing:\n%s", out)
	}

	var empty bytes.Buffer
	_ = WriteRuns(&empty, nil, nil, OutputText)
	if !strings.Contains(empty.String(), "No runs recorded.") {
		t.Errorf("empty output = %q", empty.String())
	}

	var js bytes.Buffer
	_ = WriteRuns(&js, runs, stats, OutputJSON)
	var decoded struct {
		Runs  []models.Run    `json:"runs"`
		Stats models.RunStats `json:"stats"`
	}
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Runs) != 2 || decoded.Stats.Texts != 13 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWritePassages(t *testing.T) {
	passages := []models.Passage{
		{ID: "file:ab#0", Source: "/docs/a.txt", Index: 0, Text: "first passage", Vector: []float32{1, 0}},
		{ID: "file:ab#1", Source: "/docs/a.txt", Index: 1, Text: "second passage", Vector: []float32{0, 1}},
	}
	var text bytes.Buffer
	_ = WritePassages(&text, passages, OutputText)
	if !strings.Contains(text.String(), "/docs/a.txt: 2 passages") {
		t.Errorf("text output:\n%s", text.String())
	}

	var compact bytes.Buffer
	_ = WritePassages(&compact, passages, OutputCompact)
	if !strings.HasPrefix(compact.String(), "file:ab#0\t[1,0]\n") {
		t.Errorf("compact = %q", compact.String())
	}
}
