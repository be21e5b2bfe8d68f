package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pairjournal/internal/config"
	"pairjournal/internal/gen"
	"pairjournal/internal/journal"
)

// MaxTurns is the conversation-history window. Callers truncate to the most
// recent MaxTurns turns before invoking Ask.
const MaxTurns = 6

// Request is one assistant invocation. The caller has already validated
// Asker against the known author set and bounded Turns.
type Request struct {
	Question string
	Asker    journal.Author
	Turns    []journal.Turn
}

// Assistant runs the full pipeline: interpret, retrieve, format, assemble,
// generate, normalize. It holds no per-request state; concurrent requests
// are independent.
type Assistant struct {
	interp    *Interpreter
	retriever *Retriever
	generator gen.Generator
	logger    *zap.Logger
}

// New wires the pipeline together. The clock is injectable for tests; pass
// nil to use the system clock.
func New(searcher Searcher, generator gen.Generator, cfg config.RetrievalConfig, logger *zap.Logger, now func() time.Time) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		interp:    NewInterpreter(cfg, now),
		retriever: NewRetriever(searcher, cfg, logger),
		generator: generator,
		logger:    logger,
	}
}

// Ask answers one question. Retrieval failures degrade into context text;
// the outcome is governed solely by the generation call.
func (a *Assistant) Ask(ctx context.Context, req Request) Outcome {
	intent := a.interp.Interpret(req.Question, req.Asker)
	a.logger.Debug("interpreted question",
		zap.String("asker", string(req.Asker)),
		zap.Int("authors", len(intent.Authors)),
		zap.Bool("date_filter", intent.Date != nil),
		zap.Int("keywords", len(intent.Keywords)))

	retrieval := a.retriever.Retrieve(ctx, intent)
	grounding := FormatGrounding(retrieval, intent, req.Turns)
	prompt := AssemblePrompt(req.Asker, grounding, req.Question)

	res, err := a.generator.Generate(ctx, prompt)
	outcome := Normalize(res, err)
	a.logger.Info("assistant request completed",
		zap.String("asker", string(req.Asker)),
		zap.Int("entries", len(retrieval.Hits)),
		zap.Int("outcome", int(outcome.Kind)))
	return outcome
}
