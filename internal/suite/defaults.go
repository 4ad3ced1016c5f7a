package suite

import "time"

// initializeStep is the handshake every built-in scenario starts with.
func initializeStep() Step {
	return Step{
		ID:     "init",
		Method: MethodInitialize,
		Expected: Expectation{
			Result: true,
			Exists: []string{"result.serverInfo.name", "result.serverInfo.version"},
		},
	}
}

func listToolsStep() Step {
	return Step{ID: "tools", Method: MethodListTools, Expected: Expectation{Result: true}}
}

// languageScenario checks that a language-specific image starts against a
// project of its own language.
func languageScenario(language, image string) Scenario {
	return Scenario{
		Name:          language + "_project",
		Description:   "Serena starts on a " + language + " project and lists its tools",
		Workspace:     language,
		Timeout:       60 * time.Second,
		RequiresLocal: true,
		Images:        []string{image},
		Steps:         []Step{initializeStep(), listToolsStep()},
	}
}

// DefaultScenarios returns the built-in scenarios used when no scenario file
// is configured.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "initialize",
			Description: "Server answers initialize with its name and version",
			Workspace:   "multi",
			Timeout:     60 * time.Second,
			Steps:       []Step{initializeStep()},
		},
		{
			Name:        "list_tools",
			Description: "Server lists its tools after initialize",
			Workspace:   "multi",
			Timeout:     60 * time.Second,
			Steps:       []Step{initializeStep(), listToolsStep()},
		},
		{
			Name:        "unified_multi_language",
			Description: "Unified image serves a workspace with several languages",
			Workspace:   "multi",
			Timeout:     60 * time.Second,
			Images:      []string{"aw-serena"},
			Steps:       []Step{initializeStep(), listToolsStep()},
		},
		languageScenario("go", "serena-go"),
		languageScenario("python", "serena-python"),
		languageScenario("java", "serena-java"),
		languageScenario("typescript", "serena-typescript"),
	}
}
