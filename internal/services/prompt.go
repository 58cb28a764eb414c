package services

import (
	"fmt"
	"strings"
)

// AssistantInstruction seeds every assistant chat session.
const AssistantInstruction = `You are the Language for You assistant. You help clients and localizers with
translation and localization questions: terminology, tone, locale conventions, file formats
and how to use the marketplace. Answer concisely and in the language of the question.`

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildTranslationPrompt asks for a translation of text. References from the
// translation memory, when present, are offered as terminology guidance.
func (pb *PromptBuilder) BuildTranslationPrompt(sourceLanguage, targetLanguage, text string, references []MemoryMatch) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Translate the following text from %s to %s.\n", LanguageName(sourceLanguage), LanguageName(targetLanguage))
	sb.WriteString("Preserve line breaks, formatting and placeholders. Return ONLY the translated text.\n")

	if len(references) > 0 {
		sb.WriteString("\nPREVIOUS TRANSLATIONS (keep terminology consistent):\n")
		sb.WriteString(FormatMemoryContext(references))
		sb.WriteString("\n")
	}

	sb.WriteString("\nTEXT:\n")
	sb.WriteString(text)
	return sb.String()
}

// FormatMemoryContext renders memory matches for a prompt.
func FormatMemoryContext(matches []MemoryMatch) string {
	if len(matches) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, m := range matches {
		entry := fmt.Sprintf("--- Reference %d (Score: %.2f) ---\n%s", i+1, m.Score, strings.TrimSpace(m.Text))
		if t := strings.TrimSpace(m.Translation); t != "" {
			entry += "\n=>\n" + t
		}
		parts = append(parts, entry)
	}

	return strings.Join(parts, "\n\n")
}
