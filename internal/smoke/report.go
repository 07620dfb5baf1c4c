package smoke

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"
)

// CategoryStats counts results in one category.
type CategoryStats struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped,omitempty"`
}

// Summary aggregates a run.
type Summary struct {
	TotalTests int `json:"totalTests"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	// Duration is in milliseconds
	Duration        int64                    `json:"duration"`
	Timestamp       time.Time                `json:"timestamp"`
	Results         []Result                 `json:"results"`
	CategorySummary map[string]CategoryStats `json:"categorySummary"`
}

// Summarize folds results into a Summary. Skipped results count neither
// as passed nor failed.
func Summarize(results []Result, start, end time.Time) *Summary {
	s := &Summary{
		TotalTests:      len(results),
		Duration:        end.Sub(start).Milliseconds(),
		Timestamp:       end,
		Results:         results,
		CategorySummary: make(map[string]CategoryStats),
	}
	if s.Results == nil {
		s.Results = []Result{}
	}
	for _, r := range results {
		cs := s.CategorySummary[r.Category]
		cs.Total++
		switch {
		case r.Outcome == OutcomeSkipped:
			s.Skipped++
			cs.Skipped++
		case r.Success:
			s.Passed++
			cs.Passed++
		default:
			s.Failed++
			cs.Failed++
		}
		s.CategorySummary[r.Category] = cs
	}
	return s
}

// ExitCode is 0 when nothing failed and 1 otherwise.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// PassRate is the share of executed checks that passed, in percent.
func (s *Summary) PassRate() float64 {
	ran := s.TotalTests - s.Skipped
	if ran == 0 {
		return 0
	}
	return float64(s.Passed) / float64(ran) * 100
}

// Categories returns category names sorted.
func (s *Summary) Categories() []string {
	names := make([]string, 0, len(s.CategorySummary))
	for name := range s.CategorySummary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failures returns the results that did not pass and were not skipped.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.Success && r.Outcome != OutcomeSkipped {
			out = append(out, r)
		}
	}
	return out
}

// WriteJSON writes the summary as indented JSON, creating parent dirs.
func WriteJSON(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return writeFile(path, data)
}

//go:embed report.html.tmpl
var htmlTemplate string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"ts":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).Parse(htmlTemplate))

type htmlReport struct {
	Title string
	*Summary
}

// RenderHTML renders the summary as a standalone HTML page.
func RenderHTML(w io.Writer, title string, s *Summary) error {
	if title == "" {
		title = "API Smoke Report"
	}
	return reportTemplate.Execute(w, htmlReport{Title: title, Summary: s})
}

// WriteHTML renders the HTML report to path.
func WriteHTML(path, title string, s *Summary) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, title, s); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// PrintSummary writes a console summary: totals, a per-category table and
// every failure.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "API SMOKE SUMMARY")
	fmt.Fprintf(w, "Total: %d  Passed: %d  Failed: %d  Skipped: %d  Pass rate: %.1f%%  Duration: %dms\n\n",
		s.TotalTests, s.Passed, s.Failed, s.Skipped, s.PassRate(), s.Duration)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL\tPASSED\tFAILED\tSKIPPED")
	for _, name := range s.Categories() {
		cs := s.CategorySummary[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, cs.Total, cs.Passed, cs.Failed, cs.Skipped)
	}
	_ = tw.Flush()

	failures := s.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFAILURES (%d)\n", len(failures))
	for _, r := range failures {
		status := fmt.Sprintf("%d", r.StatusCode)
		if r.StatusCode == 0 {
			status = "---"
		}
		fmt.Fprintf(w, "  %-6s %-50s %s  %s\n", r.Method, r.Endpoint, status, r.Error)
	}
}
