// Package cli provides output formatting for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format name from a flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteAnswer writes a synthesized answer with its citations to w.
func WriteAnswer(w io.Writer, result *models.QueryResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "\n%s\n", result.Answer)
	if result.Reasoning != "" && result.Reasoning != result.Answer {
		fmt.Fprintf(w, "\nReasoning:\n%s\n", result.Reasoning)
	}
	if len(result.Citations) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, c := range result.Citations {
			fmt.Fprintf(w, "  [%d] %s (score %.2f, %d chunk(s))\n", c.Number, c.Name, c.Score, c.ChunkCount)
			if c.URLOrPath != "" {
				fmt.Fprintf(w, "      %s\n", c.URLOrPath)
			}
		}
	}
	return nil
}

// WriteSources writes a source listing to w, newest first as given.
func WriteSources(w io.Writer, sources []*models.Source, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"sources": sources})
	}
	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources ingested.")
		return nil
	}
	for _, src := range sources {
		fmt.Fprintf(w, "%s  %-10s  %-4s  %s\n", src.ID, src.Status, src.Type, src.DisplayName())
		if src.Status == models.StatusFailed && src.Error != "" {
			fmt.Fprintf(w, "%38s  error: %s\n", "", src.Error)
		}
	}
	fmt.Fprintf(w, "\n%d source(s)\n", len(sources))
	return nil
}

// WriteDeletion reports the outcome of a source deletion.
func WriteDeletion(w io.Writer, result *pipeline.DeletionResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "Deleted source %s (%d chunk(s) removed)\n", result.SourceID, result.DeletedCount)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
