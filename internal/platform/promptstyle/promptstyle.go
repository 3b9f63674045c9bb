package promptstyle

import "strings"

const marker = "STUDYLADDER_PROMPT_STYLE_V1"

type Mode string

const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// ApplySystem prepends a short guidance block to a system prompt. Applying it
// twice is a no-op.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou write study material for a spaced-repetition learner.")
	if summary := firstLine(base); summary != "" {
		b.WriteString("\nTask summary: " + summary)
	}
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nUse the provided source text as grounding; do not invent facts.")
	if mode == ModeJSON {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
