// Package commands parses the slash commands typed into the chat input.
package commands
