// Package cli provides output formatting and an HTTP client for the embedd CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/embedd/internal/models"
	"github.com/hyperjump/embedd/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact prints one line per item.
	OutputCompact OutputFormat = "compact"
)

// previewValues is how many leading vector components text output shows.
const previewValues = 6

// ParseOutputFormat validates s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON, OutputCompact:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteEmbeddings writes an embeddings response. texts labels each vector in text and compact
// output and may be nil.
func WriteEmbeddings(w io.Writer, resp *models.EmbeddingResponse, texts []string, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, v := range resp.Embeddings {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
		}
		return nil
	}

	fmt.Fprintf(w, "\nEmbedded %d texts in %.2fms (%.3fms/text)\n\n", resp.Count, resp.TimeMs, resp.AvgTimeMs)
	for i, v := range resp.Embeddings {
		label := fmt.Sprintf("#%d", i)
		if i < len(texts) {
			label = fmt.Sprintf("#%d %q", i, utils.Truncate(texts[i], 60))
		}
		fmt.Fprintf(w, "%s\n  dim=%d  %s\n", label, len(v), preview(v))
	}
	return nil
}

func preview(v []float32) string {
	n := min(len(v), previewValues)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.4f", v[i])
	}
	s := "[" + strings.Join(parts, ", ")
	if len(v) > n {
		s += ", ..."
	}
	return s + "]"
}

// WriteStatus writes an engine status.
func WriteStatus(w io.Writer, st *models.EngineStatus, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, st)
	case OutputCompact:
		fmt.Fprintf(w, "state=%s initialized=%t provider=%s dim=%d max_batch=%d\n",
			st.State, st.Initialized, st.Provider, st.Dimension, st.MaxBatchSize)
		return nil
	}
	fmt.Fprintf(w, "state:           %s\n", st.State)
	fmt.Fprintf(w, "initialized:     %t\n", st.Initialized)
	fmt.Fprintf(w, "model_loaded:    %t\n", st.ModelLoaded)
	if st.Provider != "" {
		fmt.Fprintf(w, "provider:        %s\n", st.Provider)
	}
	fmt.Fprintf(w, "dimension:       %d\n", st.Dimension)
	fmt.Fprintf(w, "max_batch_size:  %d\n", st.MaxBatchSize)
	fmt.Fprintf(w, "cached_texts:    %d\n", st.CachedTexts)
	if st.ArtifactBytes > 0 {
		fmt.Fprintf(w, "artifact_bytes:  %d   # model + tokenizer on disk\n", st.ArtifactBytes)
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "last_error:      %s\n", st.LastError)
	}
	return nil
}

// WriteRuns writes recent runs followed by aggregate stats; stats may be nil.
func WriteRuns(w io.Writer, runs []*models.Run, stats *models.RunStats, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, struct {
			Runs  []*models.Run    `json:"runs"`
			Stats *models.RunStats `json:"stats,omitempty"`
		}{runs, stats})
	case OutputCompact:
		for _, r := range runs {
			fmt.Fprintf(w, "%s %s %d %.2f %s\n", r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), r.Status, r.Count, r.TotalTimeMs, r.ErrorKind)
		}
		return nil
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-5s  %5d texts  %9.2fms  %s",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Status, r.Count, r.TotalTimeMs, r.Provider)
		if r.ErrorKind != "" {
			line += "  (" + r.ErrorKind + ")"
		}
		fmt.Fprintln(w, line)
	}
	if stats != nil {
		fmt.Fprintf(w, "\nruns: %d  texts: %d  failures: %d  avg: %.3fms/text\n",
			stats.Runs, stats.Texts, stats.Failures, stats.AvgTimeMs)
	}
	return nil
}

// WritePassages writes embedded file passages.
func WritePassages(w io.Writer, passages []models.Passage, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, passages)
	case OutputCompact:
		for _, p := range passages {
			b, err := json.Marshal(p.Vector)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", p.ID, b)
		}
		return nil
	}
	if len(passages) > 0 {
		fmt.Fprintf(w, "\n%s: %d passages\n\n", passages[0].Source, len(passages))
	}
	for _, p := range passages {
		fmt.Fprintf(w, "[%d] %s\n    %s\n", p.Index, utils.Truncate(p.Text, 80), preview(p.Vector))
	}
	return nil
}
