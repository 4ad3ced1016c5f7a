package suite

import (
	"time"
)

// Result represents the outcome of a run or step
type Result string

const (
	// ResultPassed indicates every step met its expectations
	ResultPassed Result = "PASSED"
	// ResultFailed indicates an expectation was not met
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the scenario was not executed
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the server could not be driven at all
	ResultError Result = "ERROR"
)

// Step methods understood by the runner. Any other value is sent verbatim as
// a JSON-RPC method with Args as params.
const (
	MethodInitialize = "initialize"
	MethodListTools  = "list_tools"
	MethodCallTool   = "call_tool"
)

// DefaultTimeout bounds a scenario that does not set its own timeout.
const DefaultTimeout = 60 * time.Second

// Scenario defines a single test scenario run against every image
type Scenario struct {
	// Name is the unique identifier for the scenario
	Name string `yaml:"name" json:"name"`
	// Description provides human-readable scenario description
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Workspace is the fixture profile mounted into the server
	Workspace string `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	// Timeout for the whole scenario, including server startup
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// Skip indicates whether this scenario should be skipped
	Skip bool `yaml:"skip,omitempty" json:"skip,omitempty"`
	// RequiresLocal limits the scenario to runs against local images
	RequiresLocal bool `yaml:"requires_local,omitempty" json:"requires_local,omitempty"`
	// Images restricts the scenario to images containing one of these substrings
	Images []string `yaml:"images,omitempty" json:"images,omitempty"`
	// Vars are extra template values available to step arguments
	Vars map[string]interface{} `yaml:"vars,omitempty" json:"vars,omitempty"`
	// Steps define the test execution steps
	Steps []Step `yaml:"steps" json:"steps"`

	// Source is the file the scenario was loaded from, empty for built-ins
	Source string `yaml:"-" json:"source,omitempty"`
}

// Step defines a single request within a scenario
type Step struct {
	// ID names the step; its result is available to later steps as .Steps.<id>
	ID string `yaml:"id" json:"id"`
	// Description explains what the step does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Method is initialize, list_tools, call_tool or a raw JSON-RPC method
	Method string `yaml:"method" json:"method"`
	// Tool is the MCP tool to invoke for call_tool
	Tool string `yaml:"tool,omitempty" json:"tool,omitempty"`
	// Args are the tool arguments, or the params of a raw method
	Args map[string]interface{} `yaml:"args,omitempty" json:"args,omitempty"`
	// Expected defines the expected outcome
	Expected Expectation `yaml:"expected,omitempty" json:"expected,omitempty"`
}

// Expectation defines what a step's response must look like. With no error
// expectation set, any JSON-RPC or tool error fails the step.
type Expectation struct {
	// Result requires a non-null result field
	Result bool `yaml:"result,omitempty" json:"result,omitempty"`
	// Error requires a JSON-RPC error or a tool result flagged isError
	Error bool `yaml:"error,omitempty" json:"error,omitempty"`
	// Contains checks if the response contains specific text (case-insensitive)
	Contains []string `yaml:"contains,omitempty" json:"contains,omitempty"`
	// NotContains checks if the response does not contain specific text
	NotContains []string `yaml:"not_contains,omitempty" json:"not_contains,omitempty"`
	// MinTools is the least number of tools a tools/list result must carry
	MinTools int `yaml:"min_tools,omitempty" json:"min_tools,omitempty"`
	// Tools must all be present in a tools/list result
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	// Exists lists dotted paths that must be present and non-null
	Exists []string `yaml:"exists,omitempty" json:"exists,omitempty"`
	// JSONPath maps dotted paths into the response to expected values
	JSONPath map[string]interface{} `yaml:"json_path,omitempty" json:"json_path,omitempty"`
}

// Options configure a suite run.
type Options struct {
	// Images is the explicit list of images to test
	Images []string
	// LocalImages marks Images as locally built, enabling requires_local scenarios
	LocalImages bool
	// Parallel is the number of concurrent runs
	Parallel int
	// FailFast stops scheduling runs after the first failure
	FailFast bool
	// StartupDelay and StopTimeout are passed to every client
	StartupDelay time.Duration
	StopTimeout  time.Duration
	// Env is passed to every server
	Env map[string]string
	// GuestWorkspace is the workspace path as seen by the server. Empty means
	// the host path, for servers that are not containerized.
	GuestWorkspace string
}

// Job is one scenario run against one image.
type Job struct {
	Image    string   `json:"image"`
	Scenario Scenario `json:"scenario"`
}

// StepResult represents the result of a single step
type StepResult struct {
	StepID   string        `json:"step_id"`
	Method   string        `json:"method"`
	Result   Result        `json:"result"`
	Duration time.Duration `json:"duration"`
	// Response is the raw JSON-RPC response
	Response interface{} `json:"response,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// RunResult represents the result of one scenario against one image
type RunResult struct {
	Image     string        `json:"image"`
	Scenario  string        `json:"scenario"`
	Result    Result        `json:"result"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepResult  `json:"steps"`
	Error     string        `json:"error,omitempty"`
	// Stderr is the tail of the server's error output for failed runs
	Stderr string `json:"stderr,omitempty"`
}

// Failed reports whether the run failed or errored.
func (r RunResult) Failed() bool {
	return r.Result == ResultFailed || r.Result == ResultError
}

// SuiteResult represents the overall result of a suite run
type SuiteResult struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    int           `json:"errors"`
	Runs      []RunResult   `json:"runs"`
}

// Succeeded reports whether no run failed or errored.
func (s SuiteResult) Succeeded() bool {
	return s.Failed == 0 && s.Errors == 0
}

// count updates the counters for one run result
func (s *SuiteResult) count(run RunResult) {
	switch run.Result {
	case ResultPassed:
		s.Passed++
	case ResultFailed:
		s.Failed++
	case ResultSkipped:
		s.Skipped++
	case ResultError:
		s.Errors++
	}
}

// Reporter receives progress events during a suite run. Methods may be called
// from several goroutines.
type Reporter interface {
	// ReportStart is called when suite execution begins
	ReportStart(jobs []Job, opts Options)
	// ReportRunStart is called when a run begins
	ReportRunStart(job Job)
	// ReportRunResult is called when a run completes
	ReportRunResult(run RunResult)
	// ReportSuiteResult is called when all runs complete
	ReportSuiteResult(result SuiteResult)
}
