// ABOUTME: Exports a conversation log as a standalone HTML transcript
// ABOUTME: Assistant markdown goes through goldmark; user text is escaped verbatim

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/2389/chatbcg/internal/conversation"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type transcriptData struct {
	Title    string
	Exported string
	Messages []transcriptMessage
}

type transcriptMessage struct {
	Role string
	Time string
	Body template.HTML
}

var transcriptTmpl = template.Must(template.ParseFS(templateFS, "templates/transcript.html"))

// Transcript renders conversation logs to HTML.
type Transcript struct {
	md  goldmark.Markdown
	now func() time.Time
}

// NewTranscript creates a transcript renderer.
func NewTranscript() *Transcript {
	return &Transcript{
		// Raw HTML in assistant replies is omitted (goldmark's default).
		md:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now: time.Now,
	}
}

// HTML renders msgs as a complete HTML document.
func (t *Transcript) HTML(title string, msgs []conversation.Message) ([]byte, error) {
	data := transcriptData{
		Title:    title,
		Exported: t.now().Format(time.RFC1123),
		Messages: make([]transcriptMessage, 0, len(msgs)),
	}

	for _, m := range msgs {
		tm := transcriptMessage{Role: string(m.Role)}
		if !m.Timestamp.IsZero() {
			tm.Time = m.Timestamp.Format("15:04:05")
		}

		if m.Role == conversation.RoleAssistant {
			var buf bytes.Buffer
			if err := t.md.Convert([]byte(m.Content), &buf); err != nil {
				return nil, fmt.Errorf("convert message %s: %w", m.ID, err)
			}
			tm.Body = template.HTML(buf.String())
		} else {
			tm.Body = template.HTML(template.HTMLEscapeString(m.Content))
		}
		data.Messages = append(data.Messages, tm)
	}

	var out bytes.Buffer
	if err := transcriptTmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("execute transcript template: %w", err)
	}
	return out.Bytes(), nil
}
