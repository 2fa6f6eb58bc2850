package draft

import "testing"

func TestBoundedListEvictsBeyondCapacity(t *testing.T) {
	list := NewBoundedList[string](3, nil)
	for _, item := range []string{"a", "b", "c", "d"} {
		list.Prepend(item)
	}

	items := list.Items()
	if len(items) != 3 {
		t.Fatalf("expected capacity 3, got %d items", len(items))
	}
	if items[0] != "d" || items[2] != "b" {
		t.Fatalf("expected newest first with oldest evicted, got %v", items)
	}
}

func TestBoundedListDeduplicatesByKey(t *testing.T) {
	list := NewBoundedList[VersionSnapshot](5, func(snapshot VersionSnapshot) string {
		return snapshot.Content
	})
	list.Prepend(VersionSnapshot{ID: "v1", Content: "<p>같은 내용</p>"})
	list.Prepend(VersionSnapshot{ID: "v2", Content: "<p>다른 내용</p>"})
	list.Prepend(VersionSnapshot{ID: "v3", Content: "<p>같은 내용</p>"})

	items := list.Items()
	if len(items) != 2 {
		t.Fatalf("expected duplicate content collapsed, got %d items", len(items))
	}
	if items[0].ID != "v3" {
		t.Fatalf("expected the newer duplicate to survive, got %q", items[0].ID)
	}
	if items[1].ID != "v2" {
		t.Fatalf("expected distinct entry preserved, got %q", items[1].ID)
	}
}

func TestBoundedListReplaceTruncates(t *testing.T) {
	list := NewBoundedList[string](2, nil)
	list.Replace([]string{"a", "b", "c"})

	if list.Len() != 2 {
		t.Fatalf("expected replacement truncated to capacity, got %d", list.Len())
	}
	if items := list.Items(); items[0] != "a" || items[1] != "b" {
		t.Fatalf("expected head of replacement kept, got %v", items)
	}
}

func TestBoundedListItemsIsACopy(t *testing.T) {
	list := NewBoundedList[string](2, nil)
	list.Prepend("a")

	items := list.Items()
	items[0] = "mutated"
	if got := list.Items()[0]; got != "a" {
		t.Fatalf("expected internal buffer unchanged, got %q", got)
	}
}
