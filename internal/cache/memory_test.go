package cache

import (
	"fmt"
	"testing"
	"time"
)

func testEntry(key string, size int) *Entry {
	now := time.Now()
	return &Entry{
		Key:          key,
		Payload:      Blob(make([]byte, size)),
		CreatedAt:    now,
		LastAccessed: now,
		SizeBytes:    int64(size),
	}
}

func memorySum(t *memoryTier) int64 {
	var sum int64
	for _, elem := range t.items {
		sum += elem.Value.(*Entry).SizeBytes
	}
	return sum
}

func TestMemoryTier_PutLookup(t *testing.T) {
	tier := newMemoryTier(1024)

	tier.put(testEntry("k1", 100))

	entry, ok := tier.lookup("k1")
	if !ok {
		t.Fatal("entry not found after put")
	}
	if entry.SizeBytes != 100 {
		t.Errorf("size mismatch: got %d, want 100", entry.SizeBytes)
	}
	if tier.totalBytes != 100 {
		t.Errorf("totalBytes mismatch: got %d, want 100", tier.totalBytes)
	}

	if _, ok := tier.lookup("missing"); ok {
		t.Error("lookup returned an entry for a missing key")
	}
}

func TestMemoryTier_LRUEvictionOrder(t *testing.T) {
	tier := newMemoryTier(300)

	tier.put(testEntry("a", 100))
	tier.put(testEntry("b", 100))
	tier.put(testEntry("c", 100))

	// Touching "a" protects it from the next eviction.
	tier.touch("a", time.Now())

	evicted := tier.put(testEntry("d", 100))
	if len(evicted) != 1 || evicted[0].Key != "b" {
		t.Fatalf("expected eviction of b, got %v", evictedKeys(evicted))
	}

	for _, key := range []string{"a", "c", "d"} {
		if _, ok := tier.lookup(key); !ok {
			t.Errorf("key %s missing after eviction", key)
		}
	}
	if tier.totalBytes != 300 {
		t.Errorf("totalBytes mismatch: got %d, want 300", tier.totalBytes)
	}
}

func TestMemoryTier_UntouchedTiesEvictEarliestInserted(t *testing.T) {
	tier := newMemoryTier(200)

	tier.put(testEntry("first", 100))
	tier.put(testEntry("second", 100))

	evicted := tier.put(testEntry("third", 100))
	if len(evicted) != 1 || evicted[0].Key != "first" {
		t.Fatalf("expected eviction of first, got %v", evictedKeys(evicted))
	}
}

func TestMemoryTier_ReplaceDoesNotDoubleCount(t *testing.T) {
	tier := newMemoryTier(1024)

	tier.put(testEntry("k", 100))
	tier.put(testEntry("k", 60))

	if len(tier.items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(tier.items))
	}
	if tier.totalBytes != 60 {
		t.Errorf("totalBytes after replace: got %d, want 60", tier.totalBytes)
	}
}

func TestMemoryTier_TouchUpdatesBookkeeping(t *testing.T) {
	tier := newMemoryTier(1024)
	tier.put(testEntry("k", 10))

	later := time.Now().Add(time.Minute)
	tier.touch("k", later)
	tier.touch("k", later)

	entry, _ := tier.lookup("k")
	if entry.AccessCount != 2 {
		t.Errorf("access count: got %d, want 2", entry.AccessCount)
	}
	if !entry.LastAccessed.Equal(later) {
		t.Errorf("last accessed not updated")
	}
}

func TestMemoryTier_RemoveWhere(t *testing.T) {
	tier := newMemoryTier(1024)

	tagged := testEntry("tagged", 50)
	tagged.Tags = []string{"voice:af_heart"}
	tier.put(tagged)
	tier.put(testEntry("plain", 50))

	removed := tier.removeWhere(func(e *Entry) bool { return e.tagged([]string{"voice:af_heart"}) })
	if removed != 1 {
		t.Fatalf("removed %d entries, want 1", removed)
	}
	if _, ok := tier.lookup("tagged"); ok {
		t.Error("tagged entry survived removal")
	}
	if _, ok := tier.lookup("plain"); !ok {
		t.Error("untagged entry was removed")
	}
	if tier.totalBytes != 50 {
		t.Errorf("totalBytes after removal: got %d, want 50", tier.totalBytes)
	}
}

func TestMemoryTier_BudgetInvariant(t *testing.T) {
	tier := newMemoryTier(500)

	for i := 0; i < 50; i++ {
		tier.put(testEntry(fmt.Sprintf("k%d", i%7), 10+i*7%90))
		if i%3 == 0 {
			tier.remove(fmt.Sprintf("k%d", i%5))
		}
		if got, want := tier.totalBytes, memorySum(tier); got != want {
			t.Fatalf("invariant broken at step %d: totalBytes=%d sum=%d", i, got, want)
		}
		if tier.totalBytes > 500+90 {
			t.Fatalf("budget wildly exceeded: %d", tier.totalBytes)
		}
	}

	tier.clear()
	if tier.totalBytes != 0 || len(tier.items) != 0 {
		t.Error("clear did not reset the tier")
	}
}

func evictedKeys(entries []*Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}
