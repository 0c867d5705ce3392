// Package assistant is the HTTP client for the remote assistant service.
//
// # Endpoints
//
//   - POST /ask           {"query": "..."} -> {"question", "answer", "source_documents"}
//   - POST /process       multipart form, field "file" -> {"message": "..."}
//   - POST /process-repo  {"path": "..."} -> {"message": "..."}
//   - GET  /health        -> {"status": "ok"}
//
// Non-2xx responses are returned as *StatusError, with the service's
// "detail" field as the message when present.
//
// *Client satisfies conversation.Gateway.
package assistant
