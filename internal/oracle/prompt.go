package oracle

import "strings"

// SystemPrompt instructs the model to answer with a single JSON label.
const SystemPrompt = `You classify construction project documents. Respond with a single JSON object of the form {"label": "<category>"} where <category> is exactly one of the categories listed by the user. Do not add explanations.`

// BuildClassificationPrompt returns the user message for one classification call.
func BuildClassificationPrompt(text string, allowedLabels []string) string {
	var b strings.Builder
	b.WriteString("Classify this construction document into one of these categories:\n")
	b.WriteString(strings.Join(allowedLabels, ", "))
	b.WriteString("\n\nDocument text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn only the JSON object.")
	return b.String()
}
