package repl

import (
	"sort"
	"strings"

	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over every action, alias and shell
// command.
func NewCompleter() *Completer {
	commands := append([]string(nil), dispatch.Actions()...)
	for alias := range aliases {
		if alias != "?" {
			commands = append(commands, alias)
		}
	}
	commands = append(commands, LocalHelp, LocalHistory)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns completion suggestions for the given prefix,
// case-insensitively. Suggestions are upper case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
