// ABOUTME: Slash command parsing shared by the TUI and the REPL
// ABOUTME: Lines starting with "/" are commands; everything else is a chat message

package commands

import (
	"fmt"
	"slices"
	"strings"
)

// Name identifies a slash command.
type Name string

const (
	Upload     Name = "upload"
	Transcript Name = "transcript"
	History    Name = "history"
	Health     Name = "health"
	Help       Name = "help"
	Quit       Name = "quit"
)

// Command is a parsed slash command.
type Command struct {
	Name Name
	Arg  string
}

type entry struct {
	name    Name
	aliases []string
	usage   string
	summary string
	needArg bool
}

var table = []entry{
	{Upload, nil, "/upload <path>", "Upload a document to the assistant's knowledge base", true},
	{Transcript, []string{"export"}, "/transcript [path]", "Save the conversation as HTML", false},
	{History, nil, "/history", "Show conversation statistics", false},
	{Health, nil, "/health", "Check the assistant service", false},
	{Help, []string{"?"}, "/help", "Show this help", false},
	{Quit, []string{"exit", "q"}, "/quit", "Exit", false},
}

// ErrUnknown is returned for a slash command that does not exist.
type ErrUnknown struct {
	Input string
}

func (e *ErrUnknown) Error() string {
	return fmt.Sprintf("unknown command %q (try /help)", e.Input)
}

// ErrMissingArg is returned when a command that needs an argument has none.
type ErrMissingArg struct {
	Usage string
}

func (e *ErrMissingArg) Error() string {
	return "usage: " + e.Usage
}

// IsCommand reports whether line should be parsed as a slash command.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "/")
}

// Parse parses a slash command line. The argument is the rest of the line
// with surrounding whitespace trimmed, so paths may contain spaces.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{}, &ErrUnknown{Input: line}
	}

	word, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	word = strings.ToLower(word)
	arg = strings.TrimSpace(arg)

	for _, s := range table {
		if word != string(s.name) && !slices.Contains(s.aliases, word) {
			continue
		}
		if s.needArg && arg == "" {
			return Command{}, &ErrMissingArg{Usage: s.usage}
		}
		return Command{Name: s.name, Arg: unquote(arg)}, nil
	}
	return Command{}, &ErrUnknown{Input: "/" + word}
}

// HelpText lists the available commands, one per line.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, s := range table {
		fmt.Fprintf(&b, "  %-20s %s\n", s.usage, s.summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
