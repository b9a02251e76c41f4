package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const summaryInstruction = "Briefly summarize this conversation preserving key facts and context. Summary:"

// summaryNotePrefix introduces the condensed context sent in place of the raw history.
const summaryNotePrefix = "Summary of the previous conversation:\n"

// textTurn is the resolved message layout for one text generation.
// At most one of Summary and History is set.
type textTurn struct {
	Summary string
	History []generation.Message
	Prompt  string
}

// textBackend is implemented by each provider's text path.
type textBackend interface {
	summarize(ctx context.Context, model string, history []generation.Message) (string, error)
	complete(ctx context.Context, model string, turn textTurn) (string, error)
}

// runTextTurn resolves history, optionally summarizes it, performs the main
// call and records the turn. The summary call strictly precedes the main call
// and its failure aborts the turn. Nothing is appended unless the main call
// succeeded and the request context is still live.
func runTextTurn(ctx context.Context, store generation.HistoryStore, backend textBackend, req generation.GenerationRequest) (string, error) {
	var history []generation.Message
	if req.ConversationID != "" {
		history = store.History(req.ConversationID)
	}

	turn := textTurn{Prompt: req.Prompt}
	switch {
	case req.UseSummaryContext && len(history) > 0:
		summary, err := backend.summarize(ctx, req.Model.ID, history)
		if err != nil {
			return "", fmt.Errorf("summarize context: %w", err)
		}
		if strings.TrimSpace(summary) == "" {
			return "", fmt.Errorf("summarize context: %w", generation.ErrNoContentGenerated)
		}
		turn.Summary = summary
	case len(history) > 0:
		turn.History = history
	}

	content, err := backend.complete(ctx, req.Model.ID, turn)
	if err != nil {
		return "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if req.ConversationID != "" {
		store.Append(req.ConversationID,
			generation.Message{Role: generation.RoleUser, Content: req.Prompt},
			generation.Message{Role: generation.RoleAssistant, Content: content},
		)
	}
	return content, nil
}

// summaryPrompt renders the history as "role: content" lines under the instruction.
func summaryPrompt(history []generation.Message) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\n")
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
