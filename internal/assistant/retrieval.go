package assistant

import (
	"context"

	"go.uber.org/zap"

	"pairjournal/internal/config"
	"pairjournal/internal/store"
)

// Tier names the retrieval policy selected for an intent, in precedence
// order. It drives both the store query and the wording of the "no entries"
// context sentence.
type Tier int

const (
	// TierDate filters on an exact date or range, newest first.
	TierDate Tier = iota
	// TierKeyword runs a relevance search over entry text.
	TierKeyword
	// TierRecap pulls a window of recent entries for summary questions.
	TierRecap
	// TierLatest returns the single most recent entry as minimal grounding.
	TierLatest
)

// Searcher is the one store capability the retriever needs.
type Searcher interface {
	Search(ctx context.Context, q store.Query) ([]store.Hit, error)
}

// Retrieval is the bounded, ordered result of executing a plan. Err records
// a store failure consumed only for context text; it never aborts a request.
type Retrieval struct {
	Hits []store.Hit
	Tier Tier
	Err  error
}

// Retriever turns intents into store queries.
type Retriever struct {
	searcher Searcher
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

// NewRetriever builds a retriever over the given store.
func NewRetriever(searcher Searcher, cfg config.RetrievalConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DateLimit <= 0 {
		cfg.DateLimit = 15
	}
	if cfg.KeywordLimit <= 0 {
		cfg.KeywordLimit = 10
	}
	if cfg.RecapLimitPerAuthor <= 0 {
		cfg.RecapLimitPerAuthor = 5
	}
	return &Retriever{searcher: searcher, cfg: cfg, logger: logger}
}

// Plan maps an intent onto a store query by precedence: date filter, then
// keyword filter, then the recap or single-latest fallback.
func (r *Retriever) Plan(intent Intent) (store.Query, Tier) {
	q := store.Query{Authors: intent.Authors}

	switch {
	case intent.Date != nil:
		q.DateEquals = intent.Date.Equals
		q.DateFrom = intent.Date.From
		q.DateTo = intent.Date.To
		q.Limit = r.cfg.DateLimit
		return q, TierDate
	case len(intent.Keywords) > 0:
		q.Keywords = intent.Keywords
		q.Limit = r.cfg.KeywordLimit
		return q, TierKeyword
	case intent.Recap:
		q.Limit = r.cfg.RecapLimitPerAuthor * len(intent.Authors)
		return q, TierRecap
	default:
		q.Limit = 1
		return q, TierLatest
	}
}

// Retrieve executes the plan. A store failure is logged and recorded on the
// result so the formatter can say retrieval failed; the pipeline continues.
func (r *Retriever) Retrieve(ctx context.Context, intent Intent) Retrieval {
	q, tier := r.Plan(intent)

	hits, err := r.searcher.Search(ctx, q)
	if err != nil {
		r.logger.Warn("entry retrieval failed",
			zap.Int("tier", int(tier)),
			zap.Error(err))
		return Retrieval{Tier: tier, Err: err}
	}
	return Retrieval{Hits: hits, Tier: tier}
}
