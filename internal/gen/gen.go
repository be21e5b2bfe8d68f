// Package gen wraps the Gemini API behind a small Generator interface
// returning a structured result the assistant can normalize without knowing
// anything about the backend SDK.
package gen

import "context"

// Result is the structured outcome of one generation call. Fields are
// independent: Text is populated only when the candidate terminated
// normally; Fragment carries whatever candidate text exists otherwise.
type Result struct {
	// Text is the finished answer, empty if generation did not complete.
	Text string
	// BlockReason is set when the prompt itself was rejected (safety or
	// policy feedback), empty otherwise.
	BlockReason string
	// FinishReason is the per-candidate termination reason. "STOP" or
	// empty means a normal finish.
	FinishReason string
	// Fragment is partial candidate text salvaged from an abnormal or
	// incomplete response.
	Fragment string
}

// Finished reports whether the candidate terminated normally.
func (r *Result) Finished() bool {
	return r.FinishReason == "" || r.FinishReason == "STOP"
}

// Generator is the single opaque call the assistant pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}
