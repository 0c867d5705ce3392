// ABOUTME: Wire and domain types for the assistant service API
// ABOUTME: Answer, File, Ack, StatusError and the sentinel errors of the client

package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrFileTooLarge is returned before sending a file over the upload limit.
	ErrFileTooLarge = errors.New("file exceeds upload size limit")

	// ErrUnsupportedFileType is returned by ReadFile for extensions outside the allowed set.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmptyAnswer is returned when the service replies without answer text.
	ErrEmptyAnswer = errors.New("assistant returned an empty answer")
)

// Answer is the result of asking the assistant a question.
type Answer struct {
	Question        string
	Answer          string
	SourceDocuments []string
}

// File is a named document to hand to the assistant for ingestion.
type File struct {
	Name    string
	Content []byte
}

// Ack is the service acknowledgment for an ingestion request.
type Ack struct {
	Message string `json:"message"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("assistant returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("assistant returned status %d: %s", e.StatusCode, e.Detail)
}

// askRequest is the JSON body sent to POST /ask.
type askRequest struct {
	Query string `json:"query"`
}

// askResponse is the JSON body returned from POST /ask.
// Source documents are free-form on the server side, so each one is kept raw.
type askResponse struct {
	Question        string            `json:"question"`
	Answer          string            `json:"answer"`
	SourceDocuments []json.RawMessage `json:"source_documents"`
}

// processRepoRequest is the JSON body sent to POST /process-repo.
type processRepoRequest struct {
	Path string `json:"path"`
}

// healthResponse is the JSON body returned from GET /health.
type healthResponse struct {
	Status string `json:"status"`
}

// errorResponse is the error body shape of the service ({"detail": ...}).
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

func (r askResponse) toAnswer() *Answer {
	answer := &Answer{
		Question: r.Question,
		Answer:   r.Answer,
	}
	for _, raw := range r.SourceDocuments {
		answer.SourceDocuments = append(answer.SourceDocuments, rawText(raw))
	}
	return answer
}

// rawText returns a JSON string's value, or the raw JSON for anything else.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
