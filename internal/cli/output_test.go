package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAnswer_Text(t *testing.T) {
	result := &models.QueryResult{
		Answer:    "Paris is the capital of France [1].",
		Reasoning: "Step 1: The context names Paris as the capital.",
		Citations: []models.Citation{
			{Number: 1, Name: "geography.txt", Type: "file", URLOrPath: "/docs/geography.txt", Score: 0.91, ChunkCount: 2},
		},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Paris is the capital of France [1].",
		"Reasoning:",
		"[1] geography.txt (score 0.91, 2 chunk(s))",
		"/docs/geography.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAnswer_JSONRoundTrips(t *testing.T) {
	result := &models.QueryResult{Answer: "a", Reasoning: "r"}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.QueryResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Answer != "a" || decoded.Reasoning != "r" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSources_Text(t *testing.T) {
	sources := []*models.Source{
		{ID: "id-1", Type: models.SourceTypeFile, Filename: "a.txt", Status: models.StatusCompleted},
		{ID: "id-2", Type: models.SourceTypeLink, Origin: "https://example.com", Status: models.StatusFailed, Error: "load_failure: boom"},
	}
	var buf bytes.Buffer
	if err := WriteSources(&buf, sources, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"a.txt", "https://example.com", "error: load_failure: boom", "2 source(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSources_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSources(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No sources ingested.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteDeletion_Text(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDeletion(&buf, &pipeline.DeletionResult{SourceID: "id-9", DeletedCount: 4}, OutputText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Deleted source id-9 (4 chunk(s) removed)") {
		t.Errorf("output = %q", buf.String())
	}
}
