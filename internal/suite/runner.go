package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mcpprobe/internal/stdio"
	"mcpprobe/internal/template"
	"mcpprobe/internal/workspace"
	"mcpprobe/pkg/logging"
)

const runnerSubsystem = "SuiteRunner"

// maxReportedStderr bounds the server error output kept per failed run.
const maxReportedStderr = 4096

// Runner executes the image × scenario matrix
type Runner struct {
	launcher stdio.Launcher
	reporter Reporter
	opts     Options
	engine   *template.Engine
}

// NewRunner creates a runner that starts servers through launcher. A nil
// reporter discards progress events.
func NewRunner(launcher stdio.Launcher, reporter Reporter, opts Options) *Runner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Runner{
		launcher: launcher,
		reporter: reporter,
		opts:     opts,
		engine:   template.New(),
	}
}

// Jobs expands scenarios against the configured images. Scenarios restricted
// to other images are left out.
func (r *Runner) Jobs(scenarios []Scenario) []Job {
	var jobs []Job
	for _, image := range r.opts.Images {
		for _, sc := range scenarios {
			if appliesTo(sc, image) {
				jobs = append(jobs, Job{Image: image, Scenario: sc})
			}
		}
	}
	return jobs
}

func appliesTo(sc Scenario, image string) bool {
	if len(sc.Images) == 0 {
		return true
	}
	for _, fragment := range sc.Images {
		if strings.Contains(image, fragment) {
			return true
		}
	}
	return false
}

// Run executes every job on a bounded worker pool. Run failures are recorded
// in the result, not returned; the error is non-nil only if ctx ends before
// the suite completes.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*SuiteResult, error) {
	jobs := r.Jobs(scenarios)
	result := &SuiteResult{
		StartTime: time.Now(),
		Total:     len(jobs),
		Runs:      make([]RunResult, len(jobs)),
	}
	r.reporter.ReportStart(jobs, r.opts)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(r.opts.Parallel)

	for i, job := range jobs {
		g.Go(func() error {
			var run RunResult
			if gctx.Err() != nil {
				run = skippedRun(job, "cancelled")
			} else {
				r.reporter.ReportRunStart(job)
				run = r.runJob(gctx, job)
			}

			mu.Lock()
			result.Runs[i] = run
			result.count(run)
			mu.Unlock()
			r.reporter.ReportRunResult(run)

			if r.opts.FailFast && run.Failed() {
				logging.Info(runnerSubsystem, "Fail-fast triggered by %s on %s", job.Scenario.Name, job.Image)
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	r.reporter.ReportSuiteResult(*result)

	return result, ctx.Err()
}

func skippedRun(job Job, reason string) RunResult {
	return RunResult{
		Image:     job.Image,
		Scenario:  job.Scenario.Name,
		Result:    ResultSkipped,
		StartTime: time.Now(),
		Error:     reason,
	}
}

// runJob runs one scenario against one image with its own workspace and server
func (r *Runner) runJob(ctx context.Context, job Job) (run RunResult) {
	sc := job.Scenario
	switch {
	case sc.Skip:
		return skippedRun(job, "skipped")
	case sc.RequiresLocal && !r.opts.LocalImages:
		return skippedRun(job, "requires local images")
	}

	run = RunResult{
		Image:     job.Image,
		Scenario:  sc.Name,
		Result:    ResultPassed,
		StartTime: time.Now(),
	}
	defer func() { run.Duration = time.Since(run.StartTime) }()

	profile, err := workspace.ParseProfile(sc.Workspace)
	if err != nil {
		return errorRun(run, err)
	}
	ws, err := workspace.Create(profile)
	if err != nil {
		return errorRun(run, err)
	}
	defer ws.Remove()

	timeout := sc.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := stdio.NewClient(r.launcher,
		stdio.WithStartupDelay(r.opts.StartupDelay),
		stdio.WithStopTimeout(r.opts.StopTimeout),
	)
	if err := client.Start(sctx, stdio.LaunchSpec{
		Command:   []string{job.Image},
		MountPath: ws.Path,
		Env:       r.opts.Env,
	}); err != nil {
		return errorRun(run, r.contextError(sctx, timeout, err))
	}
	defer client.Stop()
	// A blocked read only returns once the server is gone.
	stopOnDone := context.AfterFunc(sctx, client.Stop)
	defer stopOnDone()

	guest := r.opts.GuestWorkspace
	if guest == "" {
		guest = ws.Path
	}
	stepData := make(map[string]interface{})
	data := template.RunContext{
		Workspace:     guest,
		HostWorkspace: ws.Path,
		Image:         job.Image,
		Steps:         stepData,
	}.Data(sc.Vars)

	for _, step := range sc.Steps {
		stepResult, resp := r.runStep(client, step, data)
		if stepResult.Result != ResultPassed && sctx.Err() != nil {
			stepResult.Result = ResultError
			stepResult.Error = r.contextError(sctx, timeout, errors.New(stepResult.Error)).Error()
		}
		run.Steps = append(run.Steps, stepResult)

		if stepResult.Result != ResultPassed {
			run.Result = stepResult.Result
			run.Error = fmt.Sprintf("step %s: %s", step.ID, stepResult.Error)
			run.Stderr = tail(client.Stderr(), maxReportedStderr)
			return run
		}
		if resp != nil {
			stepData[step.ID] = resp.Result()
		}
	}
	return run
}

// runStep sends one step's request and checks the response
func (r *Runner) runStep(client *stdio.Client, step Step, data map[string]interface{}) (result StepResult, resp stdio.Response) {
	start := time.Now()
	result = StepResult{StepID: step.ID, Method: step.Method, Result: ResultPassed}
	defer func() { result.Duration = time.Since(start) }()

	args, err := r.resolveArgs(step.Args, data)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result, nil
	}

	switch step.Method {
	case MethodInitialize:
		resp, err = client.Initialize(nil)
	case MethodListTools:
		resp, err = client.SendRequest(stdio.MethodToolsList, nil)
	case MethodCallTool:
		resp, err = client.CallToolResponse(step.Tool, args)
	default:
		resp, err = client.SendRequest(step.Method, args)
	}
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return result, nil
	}
	result.Response = map[string]interface{}(resp)

	if err := checkExpectations(step, resp); err != nil {
		result.Result = ResultFailed
		result.Error = err.Error()
	}
	logging.Debug(runnerSubsystem, "Step %s (%s) %s in %s", step.ID, step.Method, result.Result, logging.Since(start))
	return result, resp
}

func (r *Runner) resolveArgs(args map[string]interface{}, data map[string]interface{}) (map[string]interface{}, error) {
	if args == nil {
		return nil, nil
	}
	resolved, err := r.engine.Replace(args, data)
	if err != nil {
		return nil, fmt.Errorf("resolve args: %w", err)
	}
	m, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("template resolution returned unexpected type: %T", resolved)
	}
	return m, nil
}

// contextError rewrites err as a timeout when the scenario deadline passed
func (r *Runner) contextError(ctx context.Context, timeout time.Duration, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("cancelled: %w", err)
	default:
		return err
	}
}

func errorRun(run RunResult, err error) RunResult {
	run.Result = ResultError
	run.Error = err.Error()
	return run
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

type nopReporter struct{}

func (nopReporter) ReportStart([]Job, Options)    {}
func (nopReporter) ReportRunStart(Job)            {}
func (nopReporter) ReportRunResult(RunResult)     {}
func (nopReporter) ReportSuiteResult(SuiteResult) {}
