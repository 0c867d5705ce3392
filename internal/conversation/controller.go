// ABOUTME: Orchestration controller for the ask and upload flows
// ABOUTME: Optimistic user echo, one assistant reply per flow, flags always reset on settle

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/chatbcg/internal/assistant"
)

// Fixed assistant replies used when a gateway call fails.
const (
	AskFailedText    = "Failed to get response from assistant. Please try again."
	UploadFailedText = "Failed to upload file. Please try again."
)

var (
	// ErrReplyPending is returned by StartQuery while an ask flow is outstanding.
	ErrReplyPending = errors.New("a reply is already pending")

	// ErrUploadInProgress is returned by StartUpload while an upload flow is outstanding.
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// Gateway is the assistant service boundary.
type Gateway interface {
	AskAssistant(ctx context.Context, query string) (*assistant.Answer, error)
	ProcessFile(ctx context.Context, file *assistant.File) (*assistant.Ack, error)
}

// UploadSucceededText is the assistant reply after a file was ingested.
func UploadSucceededText(fileName string) string {
	return fmt.Sprintf("File \"%s\" has been processed successfully.", fileName)
}

// Controller sequences user intents and gateway outcomes into the store.
// It is the only writer of the store during a session.
type Controller struct {
	store   *Store
	gateway Gateway
	logger  *slog.Logger
}

// NewController creates a controller. Pass nil logger for default.
func NewController(store *Store, gateway Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		gateway: gateway,
		logger:  logger.With("component", "controller"),
	}
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *Store {
	return c.store
}

// SetDraft records the text the user is composing.
func (c *Controller) SetDraft(text string) {
	c.store.SetDraftInput(text)
}

// SubmitQuery runs a complete ask flow: StartQuery followed by Await.
// An empty draft is a no-op. Gateway failures are not returned; they become
// the fallback reply in the log.
func (c *Controller) SubmitQuery(ctx context.Context) error {
	pending, err := c.StartQuery()
	if err != nil || pending == nil {
		return err
	}
	pending.Await(ctx)
	return nil
}

// StartQuery runs the synchronous part of the ask flow in one atomic step:
// append the trimmed draft as a user message, clear the draft, and raise
// AwaitingReply. The gateway later receives the draft as typed. It returns
// nil, nil when the trimmed draft is empty, and ErrReplyPending (changing
// nothing) while another ask is outstanding.
func (c *Controller) StartQuery() (*PendingQuery, error) {
	var query string
	err := c.store.Update(func(tx *Txn) error {
		draft := tx.Draft()
		trimmed := strings.TrimSpace(draft)
		if trimmed == "" {
			return nil
		}
		if tx.AwaitingReply() {
			return ErrReplyPending
		}
		query = draft
		if _, err := tx.AppendMessage(Message{Role: RoleUser, Content: trimmed}); err != nil {
			return err
		}
		tx.SetDraftInput("")
		tx.SetAwaitingReply(true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, nil
	}

	c.logger.Debug("query started", "query_len", len(query))
	return &PendingQuery{controller: c, query: query}, nil
}

// PendingQuery is an ask flow waiting on the gateway.
type PendingQuery struct {
	controller *Controller
	query      string

	once   sync.Once
	reply  Message
	answer *assistant.Answer
}

// Query returns the text sent to the assistant: the draft as typed, before
// trimming.
func (p *PendingQuery) Query() string {
	return p.query
}

// Await calls the gateway and settles the flow: the answer (or the fallback
// text on any failure) is appended and AwaitingReply is cleared in one atomic
// step. Settlement happens exactly once; later calls return the same reply.
func (p *PendingQuery) Await(ctx context.Context) Message {
	p.once.Do(func() {
		c := p.controller
		content := AskFailedText
		// Deferred so the flag is cleared even if the gateway panics.
		defer func() {
			p.reply = c.settle(content, func(tx *Txn) {
				tx.SetAwaitingReply(false)
			})
		}()

		answer, err := c.gateway.AskAssistant(ctx, p.query)
		switch {
		case err != nil:
			c.logger.Error("failed to get response from assistant", "error", err)
		case answer == nil:
			c.logger.Error("failed to get response from assistant", "error", "nil answer")
		case strings.TrimSpace(answer.Answer) == "":
			c.logger.Error("failed to get response from assistant", "error", "empty answer")
		default:
			c.logger.Debug("reply received",
				"answer_len", len(answer.Answer),
				"sources", len(answer.SourceDocuments))
			p.answer = answer
			content = answer.Answer
		}
	})
	return p.reply
}

// Answer returns the gateway answer after Await, or nil if the call failed.
func (p *PendingQuery) Answer() *assistant.Answer {
	return p.answer
}

// SubmitFile runs a complete upload flow: StartUpload followed by Await.
// A nil file is a no-op. Gateway failures are not returned.
func (c *Controller) SubmitFile(ctx context.Context, file *assistant.File) error {
	pending, err := c.StartUpload(file)
	if err != nil || pending == nil {
		return err
	}
	pending.Await(ctx)
	return nil
}

// StartUpload raises Uploading and records the selected file in one atomic
// step. It returns nil, nil for a nil file, and ErrUploadInProgress (changing
// nothing) while another upload is outstanding.
func (c *Controller) StartUpload(file *assistant.File) (*PendingUpload, error) {
	if file == nil {
		return nil, nil
	}

	err := c.store.Update(func(tx *Txn) error {
		if tx.Uploading() {
			return ErrUploadInProgress
		}
		tx.SetSelectedFile(file.Name)
		tx.SetUploading(true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("upload started", "file", file.Name, "bytes", len(file.Content))
	return &PendingUpload{controller: c, file: file}, nil
}

// PendingUpload is an upload flow waiting on the gateway.
type PendingUpload struct {
	controller *Controller
	file       *assistant.File

	once  sync.Once
	reply Message
	ack   *assistant.Ack
}

// FileName returns the name of the file being uploaded.
func (p *PendingUpload) FileName() string {
	return p.file.Name
}

// Await calls the gateway and settles the flow: the acknowledgment (or the
// fallback text on any failure) is appended, Uploading is cleared, and the
// file selection is reset, all in one atomic step.
func (p *PendingUpload) Await(ctx context.Context) Message {
	p.once.Do(func() {
		c := p.controller
		content := UploadFailedText
		defer func() {
			p.reply = c.settle(content, func(tx *Txn) {
				tx.SetUploading(false)
				tx.SetSelectedFile("")
			})
		}()

		ack, err := c.gateway.ProcessFile(ctx, p.file)
		if err != nil {
			c.logger.Error("upload failed", "file", p.file.Name, "error", err)
			return
		}
		if ack == nil {
			ack = &assistant.Ack{}
		}
		c.logger.Info("file processed", "file", p.file.Name, "ack", ack.Message)
		p.ack = ack
		content = UploadSucceededText(p.file.Name)
	})
	return p.reply
}

// Ack returns the gateway acknowledgment after Await, or nil if the call failed.
func (p *PendingUpload) Ack() *assistant.Ack {
	return p.ack
}

// settle appends the assistant reply and applies reset in one step. The reset
// is committed even if the reply cannot be appended.
func (c *Controller) settle(content string, reset func(tx *Txn)) Message {
	var reply Message
	_ = c.store.Update(func(tx *Txn) error {
		msg, err := tx.AppendMessage(Message{Role: RoleAssistant, Content: content})
		if err != nil {
			c.logger.Error("failed to append assistant reply", "error", err)
		}
		reply = msg
		reset(tx)
		return nil
	})
	return reply
}
