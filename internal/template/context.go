package template

// Keys every run context reserves at the top level of the template data.
const (
	KeyWorkspace     = "Workspace"
	KeyHostWorkspace = "HostWorkspace"
	KeyImage         = "Image"
	KeySteps         = "Steps"
)

// RunContext is what scenario templates see besides the scenario's own vars.
// Steps is shared with the runner, which adds each step's result under its id.
type RunContext struct {
	Workspace     string
	HostWorkspace string
	Image         string
	Steps         map[string]interface{}
}

// IsReserved reports whether a scenario var named key would be hidden by a
// run context value.
func IsReserved(key string) bool {
	switch key {
	case KeyWorkspace, KeyHostWorkspace, KeyImage, KeySteps:
		return true
	}
	return false
}

// Data returns the template data for vars. Reserved keys always take the
// run context's value.
func (rc RunContext) Data(vars map[string]interface{}) map[string]interface{} {
	data := make(map[string]interface{}, len(vars)+4)
	for key, value := range vars {
		data[key] = value
	}
	if rc.Steps == nil {
		rc.Steps = make(map[string]interface{})
	}
	data[KeyWorkspace] = rc.Workspace
	data[KeyHostWorkspace] = rc.HostWorkspace
	data[KeyImage] = rc.Image
	data[KeySteps] = rc.Steps
	return data
}
