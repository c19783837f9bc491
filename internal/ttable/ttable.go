// Package ttable implements the engine's transposition table: a
// fixed-capacity, bucketed hash cache of search results keyed by position
// fingerprint.
//
// The table is shared by concurrent search workers with no locking. A
// slot is two independently stored 64-bit words; the key word holds the
// lookup hash XOR-folded with the data word. A reader that races a writer
// may observe a torn pair, but then the XOR verification fails and the
// probe reports a miss. Spurious misses are an accepted cost (the caller
// just searches the node again); a hit for the wrong position cannot
// happen. This trade-off is deliberate: taking a lock per probe would
// cost more than the occasional recomputation it prevents.
//
// SetSize and ClearFast replace the backing storage or its addressing
// salt and are not safe to call while another goroutine is probing; the
// caller must serialize them against searches.
package ttable

import (
	"log"
	"sync/atomic"
)

const (
	bucketLen = 4 // slots per bucket
	slotBytes = 16
)

// slotWords is the stored form of one slot. The two words are written and
// read independently; see the package comment.
type slotWords struct {
	key  atomic.Uint64 // lookup hash XOR data
	data atomic.Uint64
}

func copySlot(dst, src *slotWords) {
	dst.key.Store(src.key.Load())
	dst.data.Store(src.data.Load())
}

// Table is the transposition table. The zero value is not usable; call
// New.
type Table struct {
	slots    []slotWords
	mask     uint64        // bucket base index = hash & mask
	size     int           // current size in bytes
	now      atomic.Uint32 // cyclic generation counter
	baseHash uint64        // salt folded into every lookup hash
}

// New creates a table of at most the given byte size (minimum one
// bucket).
func New(bytes int) *Table {
	// Generation 1, not 0: freshly allocated slots carry date 0 and must
	// not look like current-generation entries.
	t := &Table{}
	t.now.Store(1)
	t.SetSize(bytes)
	return t
}

// SetSize resizes the table to the largest power-of-two bucket count
// whose byte size does not exceed size. Shrinking keeps, for every index
// folded onto the smaller table, whichever candidate has the higher
// replacement priority. Growing duplicates existing contents into the new
// space so the table does not go cold; the copies age out through normal
// eviction. If an allocation fails the request is halved until one
// succeeds; failure at the minimum size terminates the process.
func (t *Table) SetSize(size int) {
	newSize := bucketLen * slotBytes
	if size < newSize {
		size = newSize
	}
	var newMask uint64
	for ; newSize <= size-newSize; newSize += newSize {
		newMask = newMask<<1 + bucketLen
	}

	// Fold shrinking contents down onto the smaller mask first, so the
	// surviving prefix holds the best candidate for every new index.
	if newSize < t.size {
		now := t.now.Load()
		for i := range t.slots {
			j := uint64(i) & (newMask + bucketLen - 1)
			if prio(now, t.slots[j].data.Load()) < prio(now, t.slots[i].data.Load()) {
				copySlot(&t.slots[j], &t.slots[i])
			}
		}
	}

	slots, ok := allocSlots(int(newMask) + bucketLen)
	for !ok && newMask > 0 {
		newSize >>= 1
		newMask = (newMask &^ bucketLen) >> 1
		slots, ok = allocSlots(int(newMask) + bucketLen)
	}
	if !ok {
		log.Fatalf("ttable: cannot allocate minimum table of %d bytes", newSize)
	}

	n := len(slots)
	if len(t.slots) < n {
		n = len(t.slots)
	}
	for i := 0; i < n; i++ {
		copySlot(&slots[i], &t.slots[i])
	}

	if newSize > t.size {
		for i := range slots {
			if src := uint64(i) & (t.mask + bucketLen - 1); src != uint64(i) {
				copySlot(&slots[i], &slots[src])
			}
		}
	}

	t.slots = slots
	t.size = newSize
	t.mask = newMask
}

// allocSlots attempts one allocation. Oversized requests panic inside
// make and are reported as failure so SetSize can degrade; genuine heap
// exhaustion is not recoverable in Go and aborts the process outright.
func allocSlots(n int) (slots []slotWords, ok bool) {
	defer func() {
		if recover() != nil {
			slots, ok = nil, false
		}
	}()
	return make([]slotWords, n), true
}

// Read probes the table for the position with the given fingerprint.
// rootDistance is the probing node's distance from the search root; it
// renormalizes stored win/loss distances, which are position-relative so
// that an entry stays valid when the same position is reached from a
// different root. On a miss the returned slot has Found false and only
// Key set; pass it to Write after searching the node.
func (t *Table) Read(fingerprint uint64, rootDistance int) Slot {
	hash := fingerprint ^ t.baseHash
	bucket := hash & t.mask
	for i := 0; i < bucketLen; i++ {
		key := t.slots[bucket+uint64(i)].key.Load()
		data := t.slots[bucket+uint64(i)].data.Load()
		if key^data != hash {
			continue
		}
		s := unpackSlot(hash, data)
		if s.IsWinLossScore {
			if s.Score >= 0 {
				s.Score -= rootDistance
			} else {
				s.Score += rootDistance
			}
		}
		s.Found = true
		return s
	}
	return Slot{Key: hash}
}

// Write stores a search result for the position previously probed into
// prev (the slot returned by Read, with Move set by the caller). It
// returns the score the caller should use: the new score if the write was
// accepted, or the previously stored score if a hard bound rejected it.
//
// atReset reports whether the position's progress counter is at its reset
// value; distance-to-reset scores are not stored then, because they go
// stale the moment the counter resets.
func (t *Table) Write(prev Slot, depth, score, alpha, beta, rootDistance int, atReset bool) int {
	// A hard bound records a proven outcome; a heuristic result that does
	// not improve on it must not overwrite it.
	if prev.IsHardBound {
		if (prev.IsLowerBound && score <= prev.Score) ||
			(prev.IsUpperBound && score >= prev.Score) {
			return prev.Score
		}
	}

	now := t.now.Load()
	s := prev
	s.Score = score
	s.Depth = depth
	s.Date = now
	s.IsUpperBound = score <= alpha
	s.IsLowerBound = score >= beta
	s.IsHardBound = false
	s.IsWinLossScore = false

	// Win/loss distances are stored relative to this position, not to the
	// current root, by shifting out the root distance. Proven outcomes
	// become hard bounds on the winning (resp. losing) side.
	if score > MaxEval {
		if score > MaxEval+1 {
			if atReset && score <= MaxDtz {
				return score
			}
			s.Score += rootDistance
			s.IsWinLossScore = true
		}
		s.IsHardBound = s.IsLowerBound
	}
	if score < MinEval {
		if score < MinEval-1 {
			if atReset && score >= MinDtz {
				return score
			}
			s.Score -= rootDistance
			s.IsWinLossScore = true
		}
		s.IsHardBound = s.IsUpperBound
	}

	// Pick the write target: the position's own prior entry if present,
	// otherwise the lowest-priority slot in the bucket (first one on
	// ties).
	bucket := s.Key & t.mask
	target, targetPrio := 0, int(^uint(0)>>1)
	for i := 0; i < bucketLen; i++ {
		key := t.slots[bucket+uint64(i)].key.Load()
		data := t.slots[bucket+uint64(i)].data.Load()
		if key^data == s.Key {
			target = i
			break
		}
		if p := prio(now, data); p < targetPrio {
			target, targetPrio = i, p
		}
	}

	data := packSlot(s)
	t.slots[bucket+uint64(target)].data.Store(data)
	t.slots[bucket+uint64(target)].key.Store(s.Key ^ data)
	return score
}

// ClearFast invalidates the whole table in constant time by perturbing
// the salt folded into every lookup hash: no previously written entry can
// match again. Slot memory is reclaimed lazily by later writes. The
// generation also advances so the load estimate drops to zero.
func (t *Table) ClearFast() {
	t.baseHash = ^xorshift64star(^t.baseHash)
	t.Tick()
}

// Tick advances the generation counter. Each root search calls this
// once; entry age is measured in generations. Unlike SetSize and
// ClearFast, Tick is safe to call while other goroutines probe the
// table, so independent searchers sharing it need no extra coordination.
func (t *Table) Tick() {
	for {
		now := t.now.Load()
		if t.now.CompareAndSwap(now, (now+1)&dateMask) {
			return
		}
	}
}

// Load approximates the fraction of the table written during the current
// generation, sampling at most the first 10000 slots.
func (t *Table) Load() float64 {
	now := t.now.Load()
	m := len(t.slots)
	if m > 10000 {
		m = 10000
	}
	n := 0
	for i := 0; i < m; i++ {
		if slotDate(t.slots[i].data.Load()) == now {
			n++
		}
	}
	return float64(n) / float64(m)
}

// Size returns the current table size in bytes.
func (t *Table) Size() int { return t.size }

// Slots returns the current number of slots.
func (t *Table) Slots() int { return len(t.slots) }

// Generation returns the current generation counter.
func (t *Table) Generation() uint32 { return t.now.Load() }

func xorshift64star(x uint64) uint64 {
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	return x * 0x2545f4914f6cdd1d
}
