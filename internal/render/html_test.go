// ABOUTME: Tests for HTML transcript export
// ABOUTME: Checks markdown conversion, escaping, and empty logs

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/2389/chatbcg/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTranscript() *Transcript {
	tr := NewTranscript()
	tr.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return tr
}

func TestTranscript_HTML(t *testing.T) {
	tr := newTestTranscript()
	msgs := []conversation.Message{
		{ID: "1", Role: conversation.RoleUser, Content: "<b>2+2?</b>", Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "2", Role: conversation.RoleAssistant, Content: "**4**\n\n<script>alert(1)</script>"},
	}

	out, err := tr.HTML("Chat-BCG transcript", msgs)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Chat-BCG transcript</title>")
	assert.Contains(t, html, "&lt;b&gt;2+2?&lt;/b&gt;")
	assert.Contains(t, html, "09:30:00")
	assert.Contains(t, html, "<strong>4</strong>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, `class="msg user"`)
	assert.Contains(t, html, `class="msg assistant"`)
}

func TestTranscript_HTMLEmpty(t *testing.T) {
	tr := newTestTranscript()

	out, err := tr.HTML("empty", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No messages.")
}

func TestTranscript_HTMLKeepsOrder(t *testing.T) {
	tr := newTestTranscript()
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: "first"},
		{Role: conversation.RoleAssistant, Content: "second"},
		{Role: conversation.RoleUser, Content: "third"},
	}

	out, err := tr.HTML("order", msgs)
	require.NoError(t, err)
	html := string(out)

	first := strings.Index(html, "first")
	second := strings.Index(html, "second")
	third := strings.Index(html, "third")
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

