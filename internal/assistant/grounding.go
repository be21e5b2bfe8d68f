package assistant

import (
	"fmt"
	"strings"

	"pairjournal/internal/journal"
)

// AssistantLabel is the fixed speaker label for assistant turns in the
// conversation-history block.
const AssistantLabel = "Assistant"

// Grounding is the plain-text context handed to the generation backend,
// separate from the instruction preamble. Formatting is deterministic: the
// same retrieval and turns always yield byte-identical text.
type Grounding struct {
	History  string
	Excerpts string
}

// FormatGrounding renders retrieved entries and recent turns into grounding
// blocks. Entries render in retrieval order (the retrieval policy already
// ordered them newest-first or by relevance); the author name is prefixed
// only when more than one author was targeted.
func FormatGrounding(ret Retrieval, intent Intent, turns []journal.Turn) Grounding {
	return Grounding{
		History:  formatHistory(turns, intent.Asker),
		Excerpts: formatExcerpts(ret, intent),
	}
}

func formatExcerpts(ret Retrieval, intent Intent) string {
	if ret.Err != nil {
		return "Journal entries could not be retrieved due to a storage error."
	}
	if len(ret.Hits) == 0 {
		return noEntriesSentence(ret.Tier, intent)
	}

	multiAuthor := len(intent.Authors) > 1
	var b strings.Builder
	for i, hit := range ret.Hits {
		if i > 0 {
			b.WriteString("\n")
		}
		if multiAuthor {
			fmt.Fprintf(&b, "- On %s, %s wrote: %q", hit.Entry.Date, hit.Entry.Author.DisplayName(), hit.Entry.Text)
		} else {
			fmt.Fprintf(&b, "- On %s, wrote: %q", hit.Entry.Date, hit.Entry.Text)
		}
	}
	return b.String()
}

// noEntriesSentence is tiered by the filter that was attempted so the model
// does not hallucinate specificity that was never searched for.
func noEntriesSentence(tier Tier, intent Intent) string {
	switch tier {
	case TierDate:
		if intent.Date != nil && intent.Date.Equals != "" {
			return fmt.Sprintf("No journal entries were found for %s.", intent.Date.Equals)
		}
		if intent.Date != nil {
			return fmt.Sprintf("No journal entries were found between %s and %s.", intent.Date.From, intent.Date.To)
		}
		return "No journal entries were found for the requested date."
	case TierKeyword:
		return "No journal entries matched those topics."
	default:
		return "No relevant journal entries were found."
	}
}

// formatHistory renders turns oldest-first, relabeling the user role to the
// asking author's name and the assistant role to the fixed label.
func formatHistory(turns []journal.Turn, asker journal.Author) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		label := AssistantLabel
		if turn.Speaker == journal.SpeakerUser {
			label = asker.DisplayName()
		}
		fmt.Fprintf(&b, "%s: %s", label, turn.Text)
	}
	return b.String()
}
