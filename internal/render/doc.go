// Package render turns conversation content into something to look at.
//
// Terminal renders assistant markdown (CommonMark plus GFM tables,
// strikethrough, and task lists) as colored text for the TUI and REPL.
// Transcript exports a whole conversation log as a standalone HTML page.
package render
