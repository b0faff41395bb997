package cache

import (
	"container/list"
	"time"
)

// memoryTier is the in-memory LRU tier. It carries no lock of its own: the
// manager serializes all access under a single mutex, so the byte counter and
// the entry map always move together.
type memoryTier struct {
	maxBytes   int64
	totalBytes int64

	items map[string]*list.Element
	order *list.List // front = most recently used
}

func newMemoryTier(maxBytes int64) *memoryTier {
	return &memoryTier{
		maxBytes: maxBytes,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// lookup returns the entry for key without touching recency.
func (t *memoryTier) lookup(key string) (*Entry, bool) {
	elem, ok := t.items[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*Entry), true
}

// touch marks key as most recently used and updates its access bookkeeping.
func (t *memoryTier) touch(key string, now time.Time) {
	elem, ok := t.items[key]
	if !ok {
		return
	}
	t.order.MoveToFront(elem)
	entry := elem.Value.(*Entry)
	entry.LastAccessed = now
	entry.AccessCount++
}

// put inserts or replaces an entry, evicting least-recently-used entries
// until the new total fits the byte budget. A replaced entry is fully removed
// before the new one is counted, so replacement never double-counts its size.
// Evicted entries are returned for the caller's accounting.
func (t *memoryTier) put(entry *Entry) []*Entry {
	if elem, ok := t.items[entry.Key]; ok {
		t.removeElement(elem)
	}

	var evicted []*Entry
	for t.totalBytes+entry.SizeBytes > t.maxBytes && t.order.Len() > 0 {
		if victim := t.evictOldest(); victim != nil {
			evicted = append(evicted, victim)
		}
	}

	elem := t.order.PushFront(entry)
	t.items[entry.Key] = elem
	t.totalBytes += entry.SizeBytes
	return evicted
}

// remove deletes key and returns the removed entry, if any.
func (t *memoryTier) remove(key string) (*Entry, bool) {
	elem, ok := t.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*Entry)
	t.removeElement(elem)
	return entry, true
}

// removeWhere deletes every entry matching pred and returns how many were
// removed.
func (t *memoryTier) removeWhere(pred func(*Entry) bool) int {
	removed := 0
	elem := t.order.Back()
	for elem != nil {
		prev := elem.Prev()
		if pred(elem.Value.(*Entry)) {
			t.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (t *memoryTier) clear() {
	t.items = make(map[string]*list.Element)
	t.order.Init()
	t.totalBytes = 0
}

func (t *memoryTier) stats() TierStats {
	s := TierStats{
		Entries:    len(t.items),
		TotalBytes: t.totalBytes,
		MaxBytes:   t.maxBytes,
	}
	if t.maxBytes > 0 {
		s.Utilization = float64(t.totalBytes) / float64(t.maxBytes)
	}
	return s
}

// evictOldest removes the least recently used entry. Entries that were never
// touched sit at the back in insertion order, so ties fall to the earliest
// created.
func (t *memoryTier) evictOldest() *Entry {
	elem := t.order.Back()
	if elem == nil {
		return nil
	}
	entry := elem.Value.(*Entry)
	t.removeElement(elem)
	return entry
}

func (t *memoryTier) removeElement(elem *list.Element) {
	t.order.Remove(elem)
	entry := elem.Value.(*Entry)
	delete(t.items, entry.Key)
	t.totalBytes -= entry.SizeBytes
}
