package ai

import "strings"

const (
	codeFence   = "```"
	languageTag = "javascript"
)

// Clean strips code-fence delimiters and the javascript language tag from a
// model reply. Removal repeats until neither substring is left, since cutting
// one can join the halves of another.
func Clean(text string) string {
	for strings.Contains(text, codeFence) || strings.Contains(text, languageTag) {
		text = strings.ReplaceAll(text, codeFence, "")
		text = strings.ReplaceAll(text, languageTag, "")
	}
	return strings.TrimSpace(text)
}
