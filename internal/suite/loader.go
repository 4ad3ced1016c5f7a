package suite

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mcpprobe/internal/config"
	"mcpprobe/internal/template"
	"mcpprobe/internal/workspace"
	"mcpprobe/pkg/logging"
)

const loaderSubsystem = "ScenarioLoader"

// LoadScenarios loads scenarios from a YAML file or from every *.yaml and
// *.yml file below a directory. A file may hold several YAML documents, one
// scenario each. Problems are reported as a config.ConfigurationErrorCollection.
func LoadScenarios(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, config.NewConfigurationError(path, config.CategoryScenarios, config.ErrorTypeIO, err.Error())
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isYAMLFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, config.NewConfigurationError(path, config.CategoryScenarios, config.ErrorTypeIO, err.Error())
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	errs := &config.ConfigurationErrorCollection{}
	var scenarios []Scenario
	for _, file := range files {
		loaded, err := loadScenarioFile(file)
		if err != nil {
			var cerr config.ConfigurationError
			if errors.As(err, &cerr) {
				errs.Add(cerr)
				continue
			}
			return nil, err
		}
		scenarios = append(scenarios, loaded...)
	}

	for _, cerr := range ValidateScenarios(scenarios) {
		errs.Add(cerr)
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	logging.Debug(loaderSubsystem, "Loaded %d scenarios from %s", len(scenarios), path)
	return scenarios, nil
}

// loadScenarioFile decodes every YAML document in a file
func loadScenarioFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, config.NewConfigurationError(path, config.CategoryScenarios, config.ErrorTypeIO, err.Error())
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var scenarios []Scenario
	for {
		var sc Scenario
		err := dec.Decode(&sc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cerr := config.NewConfigurationError(path, config.CategoryScenarios, config.ErrorTypeParse, "malformed scenario YAML")
			cerr.Details = err.Error()
			return nil, cerr
		}
		sc.Source = path
		scenarios = append(scenarios, sc)
	}

	if len(scenarios) == 0 {
		return nil, config.NewConfigurationError(path, config.CategoryScenarios, config.ErrorTypeValidation, "file contains no scenarios")
	}
	return scenarios, nil
}

// ValidateScenarios checks names, steps and template references. Each problem
// is returned as a ConfigurationError pointing at the scenario's file.
func ValidateScenarios(scenarios []Scenario) []config.ConfigurationError {
	var errs []config.ConfigurationError
	engine := template.New()
	seen := make(map[string]string)

	for i, sc := range scenarios {
		add := func(field, format string, args ...interface{}) {
			cerr := config.NewConfigurationError(sc.Source, config.CategoryScenarios, config.ErrorTypeValidation, fmt.Sprintf(format, args...))
			cerr.Field = field
			errs = append(errs, cerr)
		}

		name := sc.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			add("name", "scenario %s has no name", name)
		} else if prev, dup := seen[name]; dup {
			add("name", "duplicate scenario name %q (also in %s)", name, prev)
		} else {
			seen[name] = sc.Source
		}

		if _, err := workspace.ParseProfile(sc.Workspace); err != nil {
			add("workspace", "scenario %s: %v", name, err)
		}
		if sc.Timeout < 0 {
			add("timeout", "scenario %s: timeout must not be negative", name)
		}
		if len(sc.Steps) == 0 {
			add("steps", "scenario %s has no steps", name)
		}
		for key := range sc.Vars {
			if template.IsReserved(key) {
				add("vars."+key, "scenario %s: var %s is reserved", name, key)
			}
		}

		stepIDs := make(map[string]bool)
		for j, step := range sc.Steps {
			field := fmt.Sprintf("steps[%d]", j)
			switch {
			case step.ID == "":
				add(field+".id", "scenario %s: step %d has no id", name, j+1)
			case stepIDs[step.ID]:
				add(field+".id", "scenario %s: duplicate step id %q", name, step.ID)
			}

			switch step.Method {
			case "":
				add(field+".method", "scenario %s: step %s has no method", name, step.ID)
			case MethodCallTool:
				if step.Tool == "" {
					add(field+".tool", "scenario %s: call_tool step %s has no tool", name, step.ID)
				}
			}
			if step.Expected.Result && step.Expected.Error {
				add(field+".expected", "scenario %s: step %s expects both a result and an error", name, step.ID)
			}

			for _, ref := range engine.ExtractFields(step.Args) {
				parts := strings.Split(ref, ".")
				if parts[0] != template.KeySteps {
					continue
				}
				if len(parts) < 2 || !stepIDs[parts[1]] {
					add(field+".args", "scenario %s: step %s references %s before it runs", name, step.ID, ref)
				}
			}

			if step.ID != "" {
				stepIDs[step.ID] = true
			}
		}
	}
	return errs
}

// isYAMLFile checks if a file has YAML extension
func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
