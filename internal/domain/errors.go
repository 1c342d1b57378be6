package domain

import "fmt"

// UpstreamError wraps a failure from one of the external services the
// receptionist delegates to. Channel adapters decide how to present it;
// the core never pre-formats user-facing error strings.
type UpstreamError struct {
	Service string // "llm" | "calendar" | "transcribe" | "synthesize"
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
