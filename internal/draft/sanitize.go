package draft

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Data attributes preserved by the sanitizer. They tag evidence references,
// comment anchors, and tracked-change markers inside the draft markup.
const (
	AttrEvidenceID = "data-evidence-id"
	AttrCommentID  = "data-comment-id"
	AttrChangeID   = "data-change-id"
)

// Sanitizer normalizes draft markup against a fixed allow-list. Every write
// path that did not originate inside this process must pass through it before
// touching session state or storage.
type Sanitizer struct {
	policy *bluemonday.Policy
	strip  *bluemonday.Policy
}

// NewSanitizer builds the allow-list policy used by every draft session.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(
		"p", "br",
		"b", "strong", "i", "em", "u", "span",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4",
	)
	policy.AllowAttrs("class").Globally()
	policy.AllowAttrs(AttrEvidenceID, AttrCommentID, AttrChangeID).OnElements("span")

	return &Sanitizer{
		policy: policy,
		strip:  bluemonday.StrictPolicy(),
	}
}

// Sanitize restricts raw markup to the allow-list. Disallowed tags and
// attributes are dropped silently; sanitizing already sanitized content
// yields the same content.
func (s *Sanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// FromPlainText converts plain text to paragraph and line-break markup and
// sanitizes the result. Blank-line separated blocks become paragraphs and
// single newlines inside a block become <br/> tags.
func (s *Sanitizer) FromPlainText(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	blocks := strings.Split(normalized, "\n\n")

	var builder strings.Builder
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		lines := strings.Split(trimmed, "\n")
		escaped := make([]string, 0, len(lines))
		for _, line := range lines {
			escaped = append(escaped, html.EscapeString(line))
		}
		builder.WriteString("<p>")
		builder.WriteString(strings.Join(escaped, "<br/>"))
		builder.WriteString("</p>")
	}

	return s.Sanitize(builder.String())
}

// InlineText strips every tag from the input and escapes the remaining text
// so it can be embedded inside draft markup as plain text.
func (s *Sanitizer) InlineText(raw string) string {
	return html.EscapeString(s.PlainText(raw))
}

// PlainText returns the human-readable text remaining after every tag is
// stripped and entities are decoded.
func (s *Sanitizer) PlainText(rawHTML string) string {
	stripped := s.strip.Sanitize(rawHTML)
	decoded := html.UnescapeString(stripped)
	decoded = strings.ReplaceAll(decoded, " ", " ")
	return strings.TrimSpace(decoded)
}

// IsEmpty reports whether the markup reduces to an empty string once every
// tag is stripped. Used to guard autosave and manual save against blank
// documents.
func (s *Sanitizer) IsEmpty(rawHTML string) bool {
	return s.PlainText(rawHTML) == ""
}
