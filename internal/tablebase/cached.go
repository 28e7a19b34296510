package tablebase

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/hailam/goldfish/internal/board"
	"github.com/hailam/goldfish/internal/storage"
)

// CachedProber wraps another prober with a BadgerDB-backed cache keyed by
// zobrist hash, so repeated probes of the same position (transpositions,
// restarted engines) skip the underlying oracle entirely. Root probes are
// never cached since they depend on move information the WDL/DTZ pair
// doesn't capture.
type CachedProber struct {
	inner Prober
	store *storage.Store

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedProber wraps inner with a cache backed by the given store. A nil
// store disables caching and every probe passes straight through.
func NewCachedProber(inner Prober, store *storage.Store) *CachedProber {
	return &CachedProber{inner: inner, store: store}
}

// NewCachedLichessProber opens the default on-disk cache and wraps a
// Lichess-backed prober with it. If the store cannot be opened, caching is
// silently disabled and every probe falls through to the network.
func NewCachedLichessProber() *CachedProber {
	store, _ := storage.Open()
	return NewCachedProber(NewLichessProber(), store)
}

func cacheKey(hash uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], hash)
	return buf[:]
}

func encodeProbeResult(r ProbeResult) []byte {
	buf := make([]byte, 10)
	if r.Found {
		buf[0] = 1
	}
	buf[1] = byte(int8(r.WDL))
	binary.BigEndian.PutUint64(buf[2:], uint64(int64(r.DTZ)))
	return buf
}

func decodeProbeResult(data []byte) (ProbeResult, bool) {
	if len(data) != 10 {
		return ProbeResult{}, false
	}
	return ProbeResult{
		Found: data[0] == 1,
		WDL:   WDL(int8(data[1])),
		DTZ:   int(int64(binary.BigEndian.Uint64(data[2:]))),
	}, true
}

func (cp *CachedProber) Probe(pos *board.Position) ProbeResult {
	if cp.store == nil {
		return cp.inner.Probe(pos)
	}

	key := cacheKey(pos.Hash)
	if raw, ok := cp.store.Get(key); ok {
		if result, ok := decodeProbeResult(raw); ok {
			cp.hits.Add(1)
			return result
		}
	}

	cp.misses.Add(1)
	result := cp.inner.Probe(pos)
	cp.store.Set(key, encodeProbeResult(result))
	return result
}

func (cp *CachedProber) ProbeRoot(pos *board.Position) RootResult {
	return cp.inner.ProbeRoot(pos)
}

func (cp *CachedProber) MaxPieces() int {
	return cp.inner.MaxPieces()
}

func (cp *CachedProber) Available() bool {
	return cp.inner.Available()
}

// HitRate returns the cache hit rate as a percentage.
func (cp *CachedProber) HitRate() float64 {
	hits, misses := cp.hits.Load(), cp.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Clear drops every cached probe result and resets the hit/miss counters.
func (cp *CachedProber) Clear() {
	cp.hits.Store(0)
	cp.misses.Store(0)
	if cp.store == nil {
		return
	}
	cp.store.DropAll()
}

// Close releases the underlying store, if any.
func (cp *CachedProber) Close() error {
	if cp.store == nil {
		return nil
	}
	return cp.store.Close()
}
