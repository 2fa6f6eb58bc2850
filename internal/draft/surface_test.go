package draft

import (
	"strings"
	"testing"
)

func TestApplyInlineMarkWrapsFirstOccurrence(t *testing.T) {
	surface := NewMarkupSurface()
	content := "<p>피고는 이를 부인한다. 피고는 이를 부인한다.</p>"

	wrapped, ok := surface.ApplyInlineMark(content, "피고는 이를 부인한다", commentOpenTag("c1"))
	if !ok {
		t.Fatalf("expected selection to be found")
	}
	if got := strings.Count(wrapped, `data-comment-id="c1"`); got != 1 {
		t.Fatalf("expected exactly one tagged span, got %d", got)
	}
	if !strings.HasPrefix(wrapped, "<p><span") {
		t.Fatalf("expected first occurrence wrapped, got %q", wrapped)
	}
}

func TestApplyInlineMarkReportsMissingSelection(t *testing.T) {
	surface := NewMarkupSurface()
	content := "<p>원고는 위자료를 청구합니다.</p>"

	unchanged, ok := surface.ApplyInlineMark(content, "존재하지 않는 문장", commentOpenTag("c1"))
	if ok {
		t.Fatalf("expected missing selection to be reported")
	}
	if unchanged != content {
		t.Fatalf("expected content unchanged, got %q", unchanged)
	}

	if _, ok := surface.ApplyInlineMark(content, "", commentOpenTag("c1")); ok {
		t.Fatalf("expected empty selection to be reported as missing")
	}
}

func TestInsertAtCursorLandsInsideFinalParagraph(t *testing.T) {
	surface := NewMarkupSurface()

	got := surface.InsertAtCursor("<p>본문</p>", "추가")
	if got != "<p>본문추가</p>" {
		t.Fatalf("expected insertion inside final paragraph, got %q", got)
	}

	got = surface.InsertAtCursor("본문", "추가")
	if got != "본문추가" {
		t.Fatalf("expected plain append without closing paragraph, got %q", got)
	}

	got = surface.InsertAtCursor("", "추가")
	if got != "추가" {
		t.Fatalf("expected insertion into empty content, got %q", got)
	}
}

func TestToggleClassOnTagged(t *testing.T) {
	surface := NewMarkupSurface()
	content := `<p><span class="comment-highlight" data-comment-id="c1">부인한다</span> 그리고 <span class="comment-highlight" data-comment-id="c2">다툰다</span></p>`

	toggled := surface.ToggleClassOnTagged(content, AttrCommentID, "c1", ClassCommentResolved)
	if got := strings.Count(toggled, ClassCommentResolved); got != 1 {
		t.Fatalf("expected resolved class only on the addressed span, got %d occurrences", got)
	}
	if !strings.Contains(toggled, `data-comment-id="c2">다툰다`) {
		t.Fatalf("expected the other span untouched, got %q", toggled)
	}

	restored := surface.ToggleClassOnTagged(toggled, AttrCommentID, "c1", ClassCommentResolved)
	if strings.Contains(restored, ClassCommentResolved) {
		t.Fatalf("expected second toggle to remove the class, got %q", restored)
	}
	if !strings.Contains(restored, ClassCommentHighlight) {
		t.Fatalf("expected original class preserved, got %q", restored)
	}
}

func TestToggleClassOnTaggedWithoutClassAttribute(t *testing.T) {
	surface := NewMarkupSurface()
	content := `<p><span data-change-id="ch1">삽입</span></p>`

	toggled := surface.ToggleClassOnTagged(content, AttrChangeID, "ch1", ClassTrackInsert)
	if !strings.Contains(toggled, `class="`+ClassTrackInsert+`"`) {
		t.Fatalf("expected class attribute added, got %q", toggled)
	}
}
