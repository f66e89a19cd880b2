package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrItemTooLarge is returned when a clip exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// DefaultCapacity is 32 MiB of encoded audio.
const DefaultCapacity int64 = 32 << 20

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64   `json:"capacity"`
	Size      int64   `json:"size"`
	Items     int64   `json:"items"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`

	LastEvict time.Time `json:"last_evict,omitempty"`
}

// Key derives the cache key for a clip. Text is normalised for whitespace
// so reflowed copies of the same sentence share an entry.
func Key(backend, language, text string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(strings.Fields(text), " ")))
	return hex.EncodeToString(h.Sum(nil))
}
