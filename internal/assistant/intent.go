// Package assistant implements the context-retrieval and prompt-assembly
// pipeline behind the journal assistant: question interpretation, entry
// retrieval with fallback tiers, grounding-context formatting, prompt
// assembly, and normalization of the generation result.
package assistant

import (
	"regexp"
	"strings"
	"time"

	"pairjournal/internal/config"
	"pairjournal/internal/journal"
)

// DateFilter constrains retrieval to a single day or an inclusive range.
// Exactly one of Equals / From+To is populated.
type DateFilter struct {
	Equals string
	From   string
	To     string
}

// Intent is the interpreted meaning of one question: who it concerns and
// which slice of the journal to look at. Date and Keywords are mutually
// exclusive, date winning; both may be empty, which is a valid state handled
// by the retrieval fallback tiers.
type Intent struct {
	Question string
	Asker    journal.Author
	Authors  []journal.Author
	Date     *DateFilter
	Keywords []string
	// Recap is set when the phrasing asks for a summary of recent days
	// ("how was", "what did"). Only consulted when no filter matched.
	Recap bool
}

// Interpreter derives Intents from free-text questions. The question text is
// matched with plain substring checks over a lowercased copy; the detectors
// run in a fixed order so precedence stays auditable.
type Interpreter struct {
	stopWords     map[string]struct{}
	minKeywordLen int
	now           func() time.Time
}

// NewInterpreter builds an interpreter from the retrieval heuristics. The
// clock is injectable so "today"/"yesterday" resolution is testable.
func NewInterpreter(cfg config.RetrievalConfig, now func() time.Time) *Interpreter {
	if now == nil {
		now = time.Now
	}
	stop := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	minLen := cfg.MinKeywordLen
	if minLen <= 0 {
		minLen = 3
	}
	return &Interpreter{
		stopWords:     stop,
		minKeywordLen: minLen,
		now:           now,
	}
}

// Interpret derives the target authors, an optional date constraint, and an
// optional keyword set from the question. Keyword extraction only runs when
// no date signal was found.
func (it *Interpreter) Interpret(question string, asker journal.Author) Intent {
	lower := strings.ToLower(question)

	intent := Intent{
		Question: question,
		Asker:    asker,
		Authors:  it.targetAuthors(lower, asker),
		Recap:    looksLikeRecap(lower),
	}

	intent.Date = it.detectDate(lower)
	if intent.Date == nil {
		intent.Keywords = it.extractKeywords(lower)
	}
	return intent
}

// targetAuthors defaults to the asker, adds the partner when named, and
// forces the full set on an "everyone/both" signal.
func (it *Interpreter) targetAuthors(lower string, asker journal.Author) []journal.Author {
	other := asker.Other()
	for _, signal := range []string{"both", "everyone", "each of us", "two of us"} {
		if strings.Contains(lower, signal) {
			return journal.Authors()
		}
	}
	if strings.Contains(lower, strings.ToLower(other.DisplayName())) {
		return []journal.Author{asker, other}
	}
	return []journal.Author{asker}
}

var dateLiteralRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// dateDetector is one named rule over the normalized question. Detectors
// run in order; the first match wins.
type dateDetector struct {
	name   string
	detect func(lower string, today time.Time) *DateFilter
}

var dateDetectors = []dateDetector{
	{
		name: "explicit-date",
		detect: func(lower string, _ time.Time) *DateFilter {
			m := dateLiteralRe.FindString(lower)
			if m == "" {
				return nil
			}
			day, err := journal.ParseDate(m)
			if err != nil {
				return nil
			}
			return &DateFilter{Equals: day}
		},
	},
	{
		name: "today",
		detect: func(lower string, today time.Time) *DateFilter {
			if !strings.Contains(lower, "today") {
				return nil
			}
			return &DateFilter{Equals: today.Format(journal.DateLayout)}
		},
	},
	{
		name: "yesterday",
		detect: func(lower string, today time.Time) *DateFilter {
			if !strings.Contains(lower, "yesterday") {
				return nil
			}
			return &DateFilter{Equals: today.AddDate(0, 0, -1).Format(journal.DateLayout)}
		},
	},
	{
		name: "last-week",
		detect: func(lower string, today time.Time) *DateFilter {
			if !strings.Contains(lower, "last week") && !strings.Contains(lower, "past week") {
				return nil
			}
			return &DateFilter{
				From: today.AddDate(0, 0, -7).Format(journal.DateLayout),
				To:   today.Format(journal.DateLayout),
			}
		},
	},
}

func (it *Interpreter) detectDate(lower string) *DateFilter {
	today := it.now()
	for _, d := range dateDetectors {
		if f := d.detect(lower, today); f != nil {
			return f
		}
	}
	return nil
}

// extractKeywords strips punctuation and stop words and keeps tokens longer
// than the configured minimum. Best-effort; an empty result is fine.
func (it *Interpreter) extractKeywords(lower string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' || r == '-' {
			return r
		}
		return ' '
	}, lower)

	seen := make(map[string]struct{})
	var keywords []string
	for _, tok := range strings.Fields(cleaned) {
		tok = strings.Trim(tok, "-")
		if len(tok) <= it.minKeywordLen {
			continue
		}
		if _, stop := it.stopWords[tok]; stop {
			continue
		}
		// Author names are targeting signals, not topics.
		if tok == string(journal.AuthorShivam) || tok == string(journal.AuthorShreya) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

var recapPhrases = []string{"how was", "how were", "what did", "what happened", "how did"}

func looksLikeRecap(lower string) bool {
	for _, p := range recapPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
