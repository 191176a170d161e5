package llm

import "strings"

// BasePrompt asks for a faithful, structured description of one slide.
const BasePrompt = `You are an expert at reading presentation slides. Describe the slide in this image so that someone who cannot see it understands it completely.

Cover, in this order:
- The slide title, if any.
- All visible text, preserving bullet structure and hierarchy.
- Charts, tables and diagrams: their type, axes or columns, the data they show and the conclusion they support.
- Images and icons that carry meaning, and how they relate to the text.
- The main takeaway of the slide in one sentence.

Rules:
- Only describe what is on the slide. Do not invent numbers or text.
- Transcribe numbers exactly as shown.
- Use plain Markdown. Do not wrap the answer in code fences.
- Do not comment on visual styling unless it conveys meaning.`

// noInstructions is the placeholder the CLI has historically used for "none".
const noInstructions = "None Provided"

// BuildInstructions returns base followed by the user supplement, if any.
// An empty base falls back to BasePrompt.
func BuildInstructions(base, extra string) string {
	if strings.TrimSpace(base) == "" {
		base = BasePrompt
	}
	extra = strings.TrimSpace(extra)
	if extra == "" || strings.EqualFold(extra, noInstructions) {
		return base
	}
	return base + "\n\nAdditional instructions:\n" + extra
}
