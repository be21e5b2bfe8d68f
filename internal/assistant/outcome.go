package assistant

import (
	"fmt"
	"net/http"

	"pairjournal/internal/gen"
)

// OutcomeKind is the tagged result type of one assistant request.
type OutcomeKind int

const (
	// OutcomeAnswered carries a complete answer.
	OutcomeAnswered OutcomeKind = iota
	// OutcomePartial carries usable partial output, surfaced rather than
	// discarded.
	OutcomePartial
	// OutcomeBlocked means the backend refused (safety/policy) or stopped
	// abnormally; Reason carries the backend's stated cause.
	OutcomeBlocked
	// OutcomeFailed means transport/parse failure or genuinely empty output.
	OutcomeFailed
)

// Outcome is the normalized result returned to the caller.
type Outcome struct {
	Kind   OutcomeKind
	Text   string // answer text for Answered/Partial
	Reason string // block reason for Blocked
	Err    error  // failure detail for Failed
}

// Normalize maps a generation result (or call error) onto exactly one
// Outcome. The cascade is total: every combination of result fields lands in
// one branch. Blocked deliberately wins over partial text so safety-stopped
// fragments are never surfaced.
func Normalize(res *gen.Result, err error) Outcome {
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	if res == nil {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("empty response")}
	}
	switch {
	case res.Text != "":
		return Outcome{Kind: OutcomeAnswered, Text: res.Text}
	case res.BlockReason != "":
		return Outcome{Kind: OutcomeBlocked, Reason: res.BlockReason}
	case !res.Finished():
		return Outcome{Kind: OutcomeBlocked, Reason: "generation stopped: " + res.FinishReason}
	case res.Fragment != "":
		return Outcome{Kind: OutcomePartial, Text: res.Fragment}
	default:
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("empty response")}
	}
}

// HTTPStatus maps the outcome to the status the API layer returns. Partial
// answers are a deliberate degrade-gracefully policy and count as success.
func (o Outcome) HTTPStatus() int {
	switch o.Kind {
	case OutcomeAnswered, OutcomePartial:
		return http.StatusOK
	case OutcomeBlocked:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
