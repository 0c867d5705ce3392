// Package conversation holds the state of a single chat session and the
// controller that drives it.
//
// # Store
//
// Store owns the message log, the draft, and two busy flags:
//
//   - AwaitingReply: an ask is outstanding
//   - Uploading: a file upload is outstanding
//
// The log is append-only. Every mutation runs inside Store.Update, which
// commits one logical step atomically and publishes exactly one snapshot:
//
//	err := store.Update(func(tx *conversation.Txn) error {
//		tx.AppendMessage(msg)
//		tx.SetAwaitingReply(false)
//		return nil
//	})
//
// Returning an error from the callback rolls the step back.
//
// # Subscriptions
//
// Presentation layers call Subscribe and render each State they receive.
// A subscriber holds at most one pending snapshot, so a slow reader skips
// intermediate states but always sees the latest one.
//
// # Controller
//
// Controller translates user intents into store mutations and gateway calls.
// Each flow is split at its suspension point:
//
//	pending, err := ctl.StartQuery() // echo user message, raise AwaitingReply
//	reply := pending.Await(ctx)      // call gateway, append reply, clear flag
//
// Await always appends exactly one assistant message (the answer or a fixed
// fallback text) and always clears its flag, even if the gateway panics.
// Starting a flow that is already outstanding is rejected with
// ErrReplyPending or ErrUploadInProgress. An ask and an upload may run at
// the same time.
package conversation
