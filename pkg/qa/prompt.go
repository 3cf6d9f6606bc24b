package qa

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/argos/pkg/vector"
)

// PlaceholderAnswer is the answer body returned until generation is
// wired to a language model.
const PlaceholderAnswer = "This is a placeholder answer. LLM integration not yet implemented."

// SystemPrompt defines the core behavior: evidence-first, no
// hallucinations.
const SystemPrompt = `You are Argos, a helpful assistant that answers questions about folder contents.

Core rules:
1. Answer ONLY using information from the provided context
2. If the answer is not in the context, say "I don't know based on the files"
3. Never guess or use outside knowledge
4. Cite specific files when providing information
5. Be concise and factual`

const promptTemplate = `Answer the following question using only the provided context.
If the answer is not present in the context, explicitly say "I don't know based on the files."

Context:
%s

Question: %s

Answer:`

// BuildPrompt formats the QA prompt from a question and its context
// chunks. Each chunk renders as a block headed by its source path.
func BuildPrompt(question string, chunks []vector.Result) string {
	blocks := make([]string, len(chunks))
	for i, chunk := range chunks {
		blocks[i] = contextBlock(chunk)
	}
	return fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n"), question)
}

func contextBlock(chunk vector.Result) string {
	return fmt.Sprintf("[%s]\n%s", Source(chunk), chunk.Content)
}

// Source reads the source path from chunk metadata.
func Source(chunk vector.Result) string {
	if s, ok := chunk.Metadata["source"].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Citations returns the distinct chunk sources in rank order.
func Citations(chunks []vector.Result) []string {
	seen := make(map[string]struct{}, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		source := Source(chunk)
		if _, ok := seen[source]; ok {
			continue
		}
		seen[source] = struct{}{}
		out = append(out, source)
	}
	return out
}

// FormatAnswer renders an answer with its numbered source list.
func FormatAnswer(text string, citations []string) string {
	if len(citations) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nSources:\n")
	for i, source := range citations {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, source)
	}
	return sb.String()
}
