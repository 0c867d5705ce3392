// ABOUTME: Conversation store: append-only message log, draft, and busy flags
// ABOUTME: Mutations commit atomically per logical step and publish one snapshot each

package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the state of one conversation for the lifetime of a session.
// It is safe for concurrent use; each Update is one atomic logical step.
type Store struct {
	mu          sync.Mutex
	state       State
	broadcaster *Broadcaster
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty store. Pass nil logger for default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		broadcaster: NewBroadcaster(logger),
		logger:      logger.With("component", "store"),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// The channel is closed when ctx is cancelled or the store is closed.
func (s *Store) Subscribe(ctx context.Context) (<-chan State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcaster.Subscribe(ctx, s.snapshotLocked())
}

// Unsubscribe ends a subscription early.
func (s *Store) Unsubscribe(subID string) {
	s.broadcaster.Unsubscribe(subID)
}

// Close discards subscribers at session end.
func (s *Store) Close() {
	s.broadcaster.Close()
}

// AppendMessage appends msg to the log, stamping ID and Timestamp when unset.
func (s *Store) AppendMessage(msg Message) (Message, error) {
	var appended Message
	err := s.Update(func(tx *Txn) error {
		var err error
		appended, err = tx.AppendMessage(msg)
		return err
	})
	return appended, err
}

// SetAwaitingReply sets the awaiting-reply flag.
func (s *Store) SetAwaitingReply(v bool) {
	_ = s.Update(func(tx *Txn) error {
		tx.SetAwaitingReply(v)
		return nil
	})
}

// SetUploading sets the uploading flag.
func (s *Store) SetUploading(v bool) {
	_ = s.Update(func(tx *Txn) error {
		tx.SetUploading(v)
		return nil
	})
}

// SetDraftInput replaces the draft. Any text is accepted, including empty.
func (s *Store) SetDraftInput(text string) {
	_ = s.Update(func(tx *Txn) error {
		tx.SetDraftInput(text)
		return nil
	})
}

// Update runs fn as one atomic step. If fn returns an error every change it
// made is rolled back and nothing is published; otherwise, if anything
// changed, the version is bumped and a single snapshot is published.
func (s *Store) Update(fn func(tx *Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Txn{store: s, saved: s.state, savedLen: len(s.state.Messages)}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if !tx.dirty {
		return nil
	}

	s.state.Version++
	// Publishing under the lock keeps snapshot order equal to commit order.
	s.broadcaster.Publish(s.snapshotLocked())
	return nil
}

func (s *Store) snapshotLocked() State {
	snap := s.state
	snap.Messages = make([]Message, len(s.state.Messages))
	copy(snap.Messages, s.state.Messages)
	return snap
}

// Txn is the mutation handle passed to Store.Update. It is only valid inside
// the callback.
type Txn struct {
	store    *Store
	saved    State
	savedLen int
	dirty    bool
}

// Draft returns the current draft.
func (tx *Txn) Draft() string { return tx.store.state.Draft }

// AwaitingReply returns the awaiting-reply flag.
func (tx *Txn) AwaitingReply() bool { return tx.store.state.AwaitingReply }

// Uploading returns the uploading flag.
func (tx *Txn) Uploading() bool { return tx.store.state.Uploading }

// AppendMessage appends msg to the log.
func (tx *Txn) AppendMessage(msg Message) (Message, error) {
	if err := msg.validate(); err != nil {
		return Message{}, err
	}
	if msg.ID == "" {
		msg.ID = tx.store.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = tx.store.now()
	}
	tx.store.state.Messages = append(tx.store.state.Messages, msg)
	tx.dirty = true
	return msg, nil
}

// SetDraftInput replaces the draft.
func (tx *Txn) SetDraftInput(text string) {
	if tx.store.state.Draft == text {
		return
	}
	tx.store.state.Draft = text
	tx.dirty = true
}

// SetAwaitingReply sets the awaiting-reply flag.
func (tx *Txn) SetAwaitingReply(v bool) {
	if tx.store.state.AwaitingReply == v {
		return
	}
	tx.store.state.AwaitingReply = v
	tx.dirty = true
}

// SetUploading sets the uploading flag.
func (tx *Txn) SetUploading(v bool) {
	if tx.store.state.Uploading == v {
		return
	}
	tx.store.state.Uploading = v
	tx.dirty = true
}

// SetSelectedFile records the file chosen in the upload control.
func (tx *Txn) SetSelectedFile(name string) {
	if tx.store.state.SelectedFile == name {
		return
	}
	tx.store.state.SelectedFile = name
	tx.dirty = true
}

func (tx *Txn) rollback() {
	restored := tx.saved
	// The log is append-only, so truncating drops exactly what fn added.
	restored.Messages = tx.store.state.Messages[:tx.savedLen]
	tx.store.state = restored
}
