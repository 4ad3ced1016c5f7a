package repl

import (
	"github.com/chzyer/readline"
)

var commandNames = []string{"help", "tools", "describe", "call", "raw", "exit"}

// createCompleter completes command names and, after call or describe, tool
// names.
func (r *REPL) createCompleter() *readline.PrefixCompleter {
	toolItems := make([]readline.PrefixCompleterInterface, len(r.tools))
	for i, tool := range r.tools {
		toolItems[i] = readline.PcItem(tool.Name)
	}
	methodItems := []readline.PrefixCompleterInterface{
		readline.PcItem("initialize"),
		readline.PcItem("tools/list"),
		readline.PcItem("tools/call"),
		readline.PcItem("resources/list"),
		readline.PcItem("prompts/list"),
		readline.PcItem("ping"),
	}

	helpItems := make([]readline.PrefixCompleterInterface, len(commandNames))
	for i, name := range commandNames {
		helpItems[i] = readline.PcItem(name)
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help", helpItems...),
		readline.PcItem("tools"),
		readline.PcItem("describe", toolItems...),
		readline.PcItem("call", toolItems...),
		readline.PcItem("raw", methodItems...),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// filterInput blocks Ctrl+Z, which would suspend the process while the
// terminal is in raw mode.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
