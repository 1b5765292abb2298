package model

import "errors"

// AppError is the structured error payload shared by every stage and returned
// by the HTTP API as {"error": {...}}.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // truncated input excerpt
	Hint    string `json:"hint,omitempty"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}

// ErrUnsupported marks a record that parsed fine but cannot be used by the
// requested client family.
var ErrUnsupported = errors.New("unsupported")
