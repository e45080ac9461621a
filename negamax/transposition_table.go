package negamax

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ultimate/board"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const depthMask = (1 << 6) - 1

// Tables smaller than this are not worth capping.
const minSizePowerOf2 = 10

// 16 bytes (entrySize)
type TableEntry struct {
	key          uint64
	score        int32
	flagAndDepth uint8
	// dense cell index + 1 of the best move; 0 means none.
	play uint8
}

func (t TableEntry) flag() uint8 {
	return t.flagAndDepth >> 6
}

func (t TableEntry) depth() uint8 {
	return t.flagAndDepth & depthMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func (t TableEntry) move() (board.Cell, bool) {
	if t.play == 0 {
		return board.Cell{}, false
	}
	idx := int(t.play) - 1
	return board.NewCell(idx/board.NumCells, idx%board.NumCells), true
}

func newEntry(score int, flag uint8, depth int, m board.Cell, hasMove bool) TableEntry {
	if depth > depthMask {
		depth = depthMask
	}
	e := TableEntry{
		score:        int32(score),
		flagAndDepth: flag<<6 | uint8(depth),
	}
	if hasMove {
		e.play = uint8(m.Index() + 1)
	}
	return e
}

// TranspositionTable is a fixed-size table keyed by position fingerprints.
// A key maps to a home slot; on a collision up to retryLimit following
// slots are probed as well. It is owned by a single solver.
type TranspositionTable struct {
	table        []TableEntry
	sizePowerOf2 int
	sizeMask     uint64
	retryLimit   int

	created atomic.Uint64
	lookups atomic.Uint64
	hits    atomic.Uint64
	// "type 2" collisions: another position occupies the home slot.
	t2collisions atomic.Uint64
}

func (t *TranspositionTable) lookup(key uint64) TableEntry {
	t.lookups.Add(1)
	idx := key & t.sizeMask
	for i := 0; i <= t.retryLimit; i++ {
		e := t.table[(idx+uint64(i))&t.sizeMask]
		if !e.valid() {
			break
		}
		if e.key == key {
			t.hits.Add(1)
			return e
		}
		if i == 0 {
			t.t2collisions.Add(1)
		}
	}
	return TableEntry{}
}

func (t *TranspositionTable) store(key uint64, tentry TableEntry) {
	tentry.key = key
	idx := key & t.sizeMask
	// Prefer the slot already holding this key, then an empty slot, then
	// the shallowest entry.
	victim := idx
	victimDepth := uint8(math.MaxUint8)
	for i := 0; i <= t.retryLimit; i++ {
		slot := (idx + uint64(i)) & t.sizeMask
		e := t.table[slot]
		if !e.valid() || e.key == key {
			victim = slot
			break
		}
		if e.depth() < victimDepth {
			victim = slot
			victimDepth = e.depth()
		}
	}
	t.table[victim] = tentry
	t.created.Add(1)
}

// Reset allocates (or clears) a table of 2^sizePowerOf2 entries. The size
// is lowered if the table would take more than fractionOfMemory of the
// system memory.
func (t *TranspositionTable) Reset(sizePowerOf2 int, retryLimit int, fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	if totalMem > 0 && fractionOfMemory > 0 {
		maxElems := fractionOfMemory * float64(totalMem) / float64(entrySize)
		if maxPower := int(math.Log2(maxElems)); maxPower < sizePowerOf2 {
			log.Warn().Int("requested", sizePowerOf2).Int("capped", maxPower).
				Msg("transposition-table-capped")
			sizePowerOf2 = maxPower
		}
	}
	if sizePowerOf2 < minSizePowerOf2 {
		sizePowerOf2 = minSizePowerOf2
	}
	if retryLimit < 0 {
		retryLimit = 0
	}
	t.sizePowerOf2 = sizePowerOf2
	t.retryLimit = retryLimit

	numElems := 1 << sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Int("retry-limit", retryLimit).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// Stats returns entries created, lookups, hits and type 2 collisions.
func (t *TranspositionTable) Stats() (created, lookups, hits, collisions uint64) {
	return t.created.Load(), t.lookups.Load(), t.hits.Load(), t.t2collisions.Load()
}
