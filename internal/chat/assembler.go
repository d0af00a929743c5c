package chat

import (
	"fmt"
	"strings"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
)

// SystemPrompt is the base instruction sent first on every turn.
const SystemPrompt = `You are a helpful AI assistant with real-time search capabilities and document analysis abilities. When providing information, please be clear and accurate.`

// Analysis is a read-only snapshot of the document/vision side-channel
// consumed when assembling a turn.
type Analysis struct {
	Vision   string
	Document string
}

func (a Analysis) Empty() bool { return a.Vision == "" && a.Document == "" }

// AssemblePrompt builds the ordered message list for one turn. The order is
// load-bearing for provider behavior:
//
//	1. system prompt
//	2. analysis-context system message, only when non-empty
//	3. web-search-context system message, only when non-empty
//	4. prior turns in chronological order, system entries stripped
//	5. the new user message
//
// History is never mutated; stripping pre-existing system entries guards
// against double system prompts. On the first turn of a draft conversation
// history is simply empty.
func AssemblePrompt(systemPrompt string, analysis Analysis, searchResult string, history []ai.Message, userText string) []ai.Message {
	out := make([]ai.Message, 0, len(history)+3)
	out = append(out, ai.Message{Role: RoleSystem, Content: systemPrompt})

	if !analysis.Empty() {
		var b strings.Builder
		b.WriteString("Analysis Results:\n\n")
		if analysis.Vision != "" {
			fmt.Fprintf(&b, "Vision Analysis:\n%s\n\n", analysis.Vision)
		}
		if analysis.Document != "" {
			fmt.Fprintf(&b, "Document Analysis:\n%s", analysis.Document)
		}
		b.WriteString("\n\nPlease consider this analysis when responding.")
		out = append(out, ai.Message{Role: RoleSystem, Content: b.String()})
	}

	if searchResult != "" {
		out = append(out, ai.Message{
			Role: RoleSystem,
			Content: fmt.Sprintf("Additional real-time search information to consider:\n\n%s\n\nCombine this information with any relevant document content in your response.",
				searchResult),
		})
	}

	for _, m := range history {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}

	return append(out, ai.Message{Role: RoleUser, Content: userText})
}
