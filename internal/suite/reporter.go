package suite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	pkgstrings "mcpprobe/pkg/strings"
)

// ConsoleReporter prints run progress and a summary table
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
	mu      sync.Mutex
}

// NewConsoleReporter creates a reporter writing to out. Verbose also prints
// each run as it starts and the steps of passing runs.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, verbose: verbose}
}

// ReportStart implements Reporter.
func (r *ConsoleReporter) ReportStart(jobs []Job, opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "Running %d scenario runs against %d images (parallel %d)\n",
		len(jobs), len(opts.Images), opts.Parallel)
	if r.verbose {
		for _, image := range opts.Images {
			fmt.Fprintf(r.out, "  • %s\n", image)
		}
	}
	fmt.Fprintln(r.out)
}

// ReportRunStart implements Reporter.
func (r *ConsoleReporter) ReportRunStart(job Job) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s on %s\n", text.FgHiBlack.Sprint("…"), job.Scenario.Name, job.Image)
}

// ReportRunResult implements Reporter.
func (r *ConsoleReporter) ReportRunResult(run RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "%s %s on %s (%s)\n", resultLabel(run.Result), run.Scenario, run.Image, run.Duration.Round(time.Millisecond))
	if run.Error != "" && run.Result != ResultPassed {
		fmt.Fprintf(r.out, "    %s\n", run.Error)
	}
	if run.Failed() && run.Stderr != "" {
		fmt.Fprintf(r.out, "    stderr: %s\n", pkgstrings.TruncateDescription(strings.TrimSpace(run.Stderr), 300))
	}
	if r.verbose {
		for _, step := range run.Steps {
			fmt.Fprintf(r.out, "    %s %s (%s)\n", resultLabel(step.Result), step.StepID, step.Method)
		}
	}
}

// ReportSuiteResult implements Reporter.
func (r *ConsoleReporter) ReportSuiteResult(result SuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, SummaryTable(result))
	fmt.Fprintln(r.out)

	summary := fmt.Sprintf("%d passed, %d failed, %d errors, %d skipped in %s",
		result.Passed, result.Failed, result.Errors, result.Skipped, result.Duration.Round(time.Millisecond))
	if result.Succeeded() {
		fmt.Fprintln(r.out, text.FgGreen.Sprint(summary))
	} else {
		fmt.Fprintln(r.out, text.FgRed.Sprint(summary))
	}
}

// SummaryTable renders a scenario × image matrix of results
func SummaryTable(result SuiteResult) string {
	var images, scenarios []string
	cells := make(map[string]map[string]Result)
	for _, run := range result.Runs {
		if run.Image == "" {
			continue
		}
		if _, ok := cells[run.Scenario]; !ok {
			cells[run.Scenario] = make(map[string]Result)
			scenarios = append(scenarios, run.Scenario)
		}
		cells[run.Scenario][run.Image] = run.Result
		if !containsString(images, run.Image) {
			images = append(images, run.Image)
		}
	}
	sort.Strings(images)

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := table.Row{text.FgHiCyan.Sprint("SCENARIO")}
	for _, image := range images {
		header = append(header, text.FgHiCyan.Sprint(shortImage(image)))
	}
	t.AppendHeader(header)

	for _, sc := range scenarios {
		row := table.Row{sc}
		for _, image := range images {
			res, ok := cells[sc][image]
			if !ok {
				row = append(row, text.FgHiBlack.Sprint("-"))
				continue
			}
			row = append(row, resultLabel(res))
		}
		t.AppendRow(row)
	}
	return t.Render() + "\n"
}

// WriteJSONReport writes the suite result as indented JSON, creating parent
// directories as needed.
func WriteJSONReport(path string, result SuiteResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func resultLabel(res Result) string {
	switch res {
	case ResultPassed:
		return text.FgGreen.Sprint("✓ PASS")
	case ResultFailed:
		return text.FgRed.Sprint("✗ FAIL")
	case ResultError:
		return text.FgHiRed.Sprint("! ERROR")
	case ResultSkipped:
		return text.FgYellow.Sprint("- SKIP")
	default:
		return string(res)
	}
}

// shortImage drops the registry and repository path from an image reference
func shortImage(image string) string {
	if i := strings.LastIndex(image, "/"); i >= 0 {
		return image[i+1:]
	}
	return image
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
