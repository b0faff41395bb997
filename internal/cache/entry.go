package cache

import (
	"encoding"
	"time"
)

// Sizeable reports the number of bytes a payload occupies, used for budget
// accounting. The size is measured once at insertion and never recomputed.
type Sizeable interface {
	SizeBytes() (int64, error)
}

// Payload is any value storable in the cache. MarshalBinary provides the
// serialized form the disk tier persists; the memory tier holds the value
// itself.
type Payload interface {
	Sizeable
	encoding.BinaryMarshaler
}

// Blob is the stock byte-slice payload. Disk hits are promoted into the
// memory tier as Blobs.
type Blob []byte

// SizeBytes implements Sizeable. It never fails.
func (b Blob) SizeBytes() (int64, error) { return int64(len(b)), nil }

// MarshalBinary implements encoding.BinaryMarshaler.
func (b Blob) MarshalBinary() ([]byte, error) { return b, nil }

// Entry is a cached value plus its bookkeeping. An entry is owned exclusively
// by whichever tier currently holds it.
type Entry struct {
	Key          string
	Payload      Payload
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
	SizeBytes    int64
	TTL          time.Duration // zero means never expires
	Tags         []string
}

// expired reports whether the entry's TTL has elapsed at now. Expiry is
// evaluated lazily on access and eagerly during cleanup sweeps, never at
// write time.
func (e *Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.CreatedAt.Add(e.TTL))
}

// tagged reports whether the entry carries any of the given tags.
func (e *Entry) tagged(tags []string) bool {
	return tagsIntersect(e.Tags, tags)
}

func tagsIntersect(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
