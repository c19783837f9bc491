package ttable

// Score scale shared by the table, the evaluator and the searcher. The
// codec's win/loss thresholds live here because the table is the one
// component that must recognize them on every write.
//
// Scores in (MaxEval, MaxMate] are win scores carrying a distance to the
// winning line; the sub-range (MaxEval+1, MaxDtz] carries a distance to
// the next irreversible-progress move instead of to the final outcome.
// Everything is mirrored for losses.
const (
	// MaxDepth bounds the search depth a slot can record.
	MaxDepth = 120

	// MaxMate is the score for an immediate win; a win in n plies scores
	// MaxMate - n.
	MaxMate = 32000
	MinMate = -MaxMate

	MaxDtz = MaxMate - (MaxDepth + 1)
	MinDtz = -MaxDtz

	// MaxEval is the largest score a heuristic evaluation may produce.
	MaxEval = MaxDtz - (MaxDepth + 1)
	MinEval = -MaxEval
)

// Slot is one decoded cache entry. Key holds the salted lookup hash, not
// the raw position fingerprint. Found is set only by Read; it is not part
// of the stored representation.
type Slot struct {
	Key   uint64
	Score int
	Depth int
	Date  uint32
	Move  int

	IsUpperBound   bool // score <= alpha at write time (fail low)
	IsLowerBound   bool // score >= beta at write time (fail high)
	IsHardBound    bool // proven bound; resists non-improving overwrites
	IsWinLossScore bool // score is a position-relative outcome distance

	Found bool
}

// Data word layout. A zero word must decode as the empty slot, which
// holds because score/depth/date/move all encode zero as zero and no
// flags are set.
const (
	scoreBits = 16
	depthBits = 8
	dateBits  = 10
	moveBits  = 16

	scoreShift = 0
	depthShift = scoreShift + scoreBits
	dateShift  = depthShift + depthBits
	flagShift  = dateShift + dateBits
	moveShift  = flagShift + 4

	depthMask = 1<<depthBits - 1
	dateMask  = 1<<dateBits - 1
	moveMask  = 1<<moveBits - 1

	flagUpper   = 1 << (flagShift + 0)
	flagLower   = 1 << (flagShift + 1)
	flagHard    = 1 << (flagShift + 2)
	flagWinLoss = 1 << (flagShift + 3)
)

// packSlot encodes the semantic record into its data word. The key word
// is not part of the encoding; the caller XOR-folds it separately.
func packSlot(s Slot) uint64 {
	d := uint64(uint16(int16(s.Score))) << scoreShift
	d |= uint64(s.Depth&depthMask) << depthShift
	d |= uint64(s.Date&dateMask) << dateShift
	d |= uint64(s.Move&moveMask) << moveShift
	if s.IsUpperBound {
		d |= flagUpper
	}
	if s.IsLowerBound {
		d |= flagLower
	}
	if s.IsHardBound {
		d |= flagHard
	}
	if s.IsWinLossScore {
		d |= flagWinLoss
	}
	return d
}

// unpackSlot decodes a data word read from the table. key is the already
// XOR-verified lookup hash.
func unpackSlot(key, data uint64) Slot {
	return Slot{
		Key:            key,
		Score:          int(int16(uint16(data >> scoreShift))),
		Depth:          int(data>>depthShift) & depthMask,
		Date:           uint32(data>>dateShift) & dateMask,
		Move:           int(data>>moveShift) & moveMask,
		IsUpperBound:   data&flagUpper != 0,
		IsLowerBound:   data&flagLower != 0,
		IsHardBound:    data&flagHard != 0,
		IsWinLossScore: data&flagWinLoss != 0,
	}
}

// slotDate extracts the generation stamp without a full decode; the load
// estimator and replacement priority only need this field.
func slotDate(data uint64) uint32 {
	return uint32(data>>dateShift) & dateMask
}

// slotDepth extracts the depth field without a full decode.
func slotDepth(data uint64) int {
	return int(data>>depthShift) & depthMask
}

// prio is the replacement priority of a stored data word: primarily
// freshness (smaller age wins), secondarily depth. Pure so the eviction
// order can be tested in isolation.
func prio(now uint32, data uint64) int {
	age := int((now - slotDate(data)) & dateMask)
	return -age<<depthBits + slotDepth(data)
}
