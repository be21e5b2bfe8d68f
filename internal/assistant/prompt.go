package assistant

import (
	"fmt"
	"strings"

	"pairjournal/internal/journal"
)

// AssemblePrompt composes the instruction document sent to the generation
// backend. The ordering is a contract: persona and task instructions come
// first, then conversation history, then journal excerpts, then the live
// question, so instruction-following is not diluted by long context.
func AssemblePrompt(asker journal.Author, g Grounding, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		"You are the shared journal assistant for %s and %s, who keep a journal together. %s is talking to you right now.\n\n",
		journal.AuthorShivam.DisplayName(), journal.AuthorShreya.DisplayName(), asker.DisplayName())

	b.WriteString("Instructions:\n")
	b.WriteString("- When the journal excerpts below are relevant, ground your answer in them.\n")
	b.WriteString("- If no matching entries exist, say so plainly instead of inventing journal content.\n")
	b.WriteString("- For ordinary conversation, just chat naturally.\n")
	b.WriteString("- You may offer supportive suggestions or ideas beyond the journal content, but present them clearly as suggestions, never as things that were written in the journal.\n")

	if g.History != "" {
		b.WriteString("\nRecent conversation:\n")
		b.WriteString(g.History)
		b.WriteString("\n")
	}

	b.WriteString("\nJournal excerpts:\n")
	b.WriteString(g.Excerpts)
	b.WriteString("\n")

	fmt.Fprintf(&b, "\n%s asks: %q\n", asker.DisplayName(), question)
	b.WriteString("\nAnswer:")

	return b.String()
}
