package draft

// BoundedList is a fixed-capacity ordered buffer that keeps the newest item
// first and evicts the oldest item beyond capacity. It backs both the version
// history and the change log.
type BoundedList[T any] struct {
	capacity int
	keyOf    func(T) string
	items    []T
}

// NewBoundedList constructs a BoundedList. A non-nil keyOf enables
// deduplication: prepending an item removes any existing item with the same
// key before insertion. Capacity values below one fall back to one.
func NewBoundedList[T any](capacity int, keyOf func(T) string) *BoundedList[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedList[T]{
		capacity: capacity,
		keyOf:    keyOf,
	}
}

// Prepend inserts the item at the head, dropping duplicates and anything
// beyond capacity.
func (l *BoundedList[T]) Prepend(item T) {
	if l.keyOf != nil {
		key := l.keyOf(item)
		kept := l.items[:0]
		for _, existing := range l.items {
			if l.keyOf(existing) != key {
				kept = append(kept, existing)
			}
		}
		l.items = kept
	}

	l.items = append([]T{item}, l.items...)
	if len(l.items) > l.capacity {
		l.items = l.items[:l.capacity]
	}
}

// Replace swaps the whole buffer for the provided items, truncating to
// capacity. Used when remote or persisted state takes over.
func (l *BoundedList[T]) Replace(items []T) {
	copied := make([]T, 0, len(items))
	copied = append(copied, items...)
	if len(copied) > l.capacity {
		copied = copied[:l.capacity]
	}
	l.items = copied
}

// Items returns a copy of the buffer, newest first.
func (l *BoundedList[T]) Items() []T {
	copied := make([]T, len(l.items))
	copy(copied, l.items)
	return copied
}

// Len returns the number of buffered items.
func (l *BoundedList[T]) Len() int {
	return len(l.items)
}
