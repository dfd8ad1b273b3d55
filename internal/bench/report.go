package bench

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ccastromar/tokens/internal/store"
)

// Summary aggregates one run. Fastest/Slowest/Avg cover successes only.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Fastest   *store.Result
	Slowest   *store.Result
	AvgDur    time.Duration
}

// SortResults orders successes first, then by duration ascending. This is
// the display order everywhere (report, API, UI).
func SortResults(results []store.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].Status == "ok", results[j].Status == "ok"
		if si != sj {
			return si
		}
		return results[i].Duration < results[j].Duration
	})
}

// Summarize computes the run summary. Results must already be sorted.
func Summarize(results []store.Result) Summary {
	s := Summary{Total: len(results)}

	var sum time.Duration
	for i := range results {
		if results[i].Status != "ok" {
			s.Failed++
			continue
		}
		s.Succeeded++
		sum += results[i].Duration
		if s.Fastest == nil {
			s.Fastest = &results[i]
		}
		s.Slowest = &results[i]
	}
	if s.Succeeded > 0 {
		s.AvgDur = sum / time.Duration(s.Succeeded)
	}
	return s
}

const reportWidth = 80

// WriteReport renders the comparison table for a finished run.
func WriteReport(w io.Writer, run store.Run, results []store.Result) {
	sep := strings.Repeat("=", reportWidth)
	line := strings.Repeat("-", reportWidth)

	fmt.Fprintf(w, "%s\nPERFORMANCE SUMMARY\n%s\n\n", sep, sep)
	fmt.Fprintf(w, "Run:    %s\nPrompt: %q\n\n", run.ID, run.Prompt)

	fmt.Fprintf(w, "%-40s %-10s %10s %8s %8s\n", "Model", "Status", "Time (s)", "TokIn", "TokOut")
	fmt.Fprintln(w, line)

	for _, r := range results {
		status := r.Status
		if r.Cached {
			status = "ok (cache)"
		}
		fmt.Fprintf(w, "%-40s %-10s %10.2f %8d %8d\n",
			truncate(r.Model, 40), status, r.Duration.Seconds(), r.PromptTokens, r.CompletionTokens)
	}
	fmt.Fprintln(w, line)

	s := Summarize(results)
	fmt.Fprintf(w, "Total Models: %d | Successful: %d | Failed: %d\n", s.Total, s.Succeeded, s.Failed)

	if s.Succeeded > 0 {
		fmt.Fprintf(w, "\nFastest Model: %s (%.2fs)\n", s.Fastest.Model, s.Fastest.Duration.Seconds())
		fmt.Fprintf(w, "Slowest Model: %s (%.2fs)\n", s.Slowest.Model, s.Slowest.Duration.Seconds())
		fmt.Fprintf(w, "Average Time:  %.2fs\n", s.AvgDur.Seconds())
	}

	if s.Failed > 0 {
		fmt.Fprintf(w, "\n%s\nFAILED MODELS\n%s\n", sep, sep)
		for _, r := range results {
			if r.Status == "ok" {
				continue
			}
			fmt.Fprintf(w, "\n%s\n  Model ID: %s\n  Error: %s\n", r.Model, r.ModelID, r.Error)
		}
	}
	fmt.Fprintln(w, sep)
}

// truncate counts runes, model names are free text
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
