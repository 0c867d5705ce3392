// Package tui is the full-screen chat interface.
//
// The model subscribes to the conversation store and re-renders on every
// snapshot, so what is on screen always reflects the latest committed state.
// Enter and /upload go through the conversation controller; the gateway
// call runs in a bubbletea command and its result reaches the screen as the
// next snapshot.
package tui
