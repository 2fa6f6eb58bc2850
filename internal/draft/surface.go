package draft

import (
	"fmt"
	"regexp"
	"strings"
)

// ClassCommentHighlight tags the span wrapped around a commented selection.
const ClassCommentHighlight = "comment-highlight"

// ClassCommentResolved is toggled on comment spans when the comment resolves.
const ClassCommentResolved = "comment-resolved"

// ClassTrackInsert tags spans wrapped around tracked insertions.
const ClassTrackInsert = "track-insert"

// Surface is the rich-text capability boundary. The engine only manipulates
// markup through it so hosts with a real editor surface can substitute their
// own implementation.
type Surface interface {
	// ApplyInlineMark wraps the first occurrence of the selection in the given
	// span markup. The second return value reports whether the selection was
	// found as a contiguous run of the content.
	ApplyInlineMark(content, selection, openTag string) (string, bool)
	// InsertAtCursor inserts markup at the session's insertion point. The
	// string surface has no cursor, so the insertion point is the end of the
	// final block.
	InsertAtCursor(content, markup string) string
	// ToggleClassOnTagged toggles the class on every span carrying the given
	// identifying attribute value.
	ToggleClassOnTagged(content, attr, id, class string) string
}

// markupSurface implements Surface with plain string rewriting.
type markupSurface struct{}

// NewMarkupSurface returns the default string-rewriting surface.
func NewMarkupSurface() Surface {
	return markupSurface{}
}

func (markupSurface) ApplyInlineMark(content, selection, openTag string) (string, bool) {
	if selection == "" {
		return content, false
	}
	index := strings.Index(content, selection)
	if index < 0 {
		return content, false
	}
	var builder strings.Builder
	builder.WriteString(content[:index])
	builder.WriteString(openTag)
	builder.WriteString(selection)
	builder.WriteString("</span>")
	builder.WriteString(content[index+len(selection):])
	return builder.String(), true
}

func (markupSurface) InsertAtCursor(content, markup string) string {
	const closingParagraph = "</p>"
	if strings.HasSuffix(content, closingParagraph) {
		return content[:len(content)-len(closingParagraph)] + markup + closingParagraph
	}
	return content + markup
}

var spanTagPattern = regexp.MustCompile(`<span\b[^>]*>`)

func (markupSurface) ToggleClassOnTagged(content, attr, id, class string) string {
	marker := fmt.Sprintf(`%s="%s"`, attr, id)
	return spanTagPattern.ReplaceAllStringFunc(content, func(tag string) string {
		if !strings.Contains(tag, marker) {
			return tag
		}
		return toggleClassInTag(tag, class)
	})
}

var classAttrPattern = regexp.MustCompile(`class="([^"]*)"`)

func toggleClassInTag(tag, class string) string {
	match := classAttrPattern.FindStringSubmatch(tag)
	if match == nil {
		return strings.Replace(tag, "<span", fmt.Sprintf(`<span class="%s"`, class), 1)
	}

	classes := strings.Fields(match[1])
	kept := classes[:0]
	found := false
	for _, existing := range classes {
		if existing == class {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		kept = append(kept, class)
	}
	replacement := fmt.Sprintf(`class="%s"`, strings.Join(kept, " "))
	return classAttrPattern.ReplaceAllString(tag, replacement)
}

// commentOpenTag builds the span markup that anchors a comment.
func commentOpenTag(commentID string) string {
	return fmt.Sprintf(`<span class="%s" %s="%s">`, ClassCommentHighlight, AttrCommentID, commentID)
}

// changeOpenTag builds the span markup that marks a tracked insertion.
func changeOpenTag(changeID string) string {
	return fmt.Sprintf(`<span class="%s" %s="%s">`, ClassTrackInsert, AttrChangeID, changeID)
}
