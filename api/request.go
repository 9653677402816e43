package api

import (
	contractx "github.com/svergara/concierge/agent/contract"
)

// ChatRequest is the body of POST /chat. SessionID is optional; the
// server mints one when it is absent.
type ChatRequest struct {
	Prompt    string                 `json:"prompt"`
	SessionID string                 `json:"session_id,omitempty"`
	Files     []contractx.Attachment `json:"files,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}
