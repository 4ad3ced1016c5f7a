// Package suite runs MCP server scenarios against a matrix of images.
//
// A scenario is a list of steps, each one a request sent to a freshly started
// server over stdio, plus expectations about the response. Scenarios are
// loaded from YAML, or taken from DefaultScenarios when none are configured.
// Every scenario gets its own workspace fixture and server process, so runs
// can execute in parallel.
//
// Step arguments are Go templates. They see the scenario's vars, the
// workspace path as the server sees it (.Workspace), the image (.Image) and
// the result of every earlier step (.Steps.<id>):
//
//	name: find_main
//	workspace: go
//	steps:
//	  - id: init
//	    method: initialize
//	  - id: find
//	    method: call_tool
//	    tool: find_symbol
//	    args:
//	      name_path: main
//	      relative_path: "{{ .Workspace }}/main.go"
//	    expected:
//	      contains: [main]
package suite
