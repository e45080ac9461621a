package zobrist

import (
	"errors"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

var ErrInvalidSize = errors.New("zobrist table size must be positive")

// Table holds the codewords for a zobrist hash.
// https://en.wikipedia.org/wiki/Zobrist_hashing
// A Table is never modified after construction, so a single one can be
// shared by every position in the process.
type Table struct {
	codewords []uint64
}

// NewTable creates a table of random codewords.
func NewTable(size int) (*Table, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	t := &Table{codewords: make([]uint64, size)}
	for i := range t.codewords {
		t.codewords[i] = frand.Uint64n(bignum) + 1
	}
	return t, nil
}

// NewSeededTable creates a table whose codewords depend only on the seed.
// Use it for tests and for reproducing a search.
func NewSeededTable(size int, seed uint64) (*Table, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	t := &Table{codewords: make([]uint64, size)}
	state := seed
	for i := range t.codewords {
		state += 0x9e3779b97f4a7c15
		t.codewords[i] = splitmix(state)
	}
	return t, nil
}

// https://stackoverflow.com/a/12996028/1737333
func splitmix(x uint64) uint64 {
	x = (x ^ (x >> 30)) * uint64(0xbf58476d1ce4e5b9)
	x = (x ^ (x >> 27)) * uint64(0x94d049bb133111eb)
	return x ^ (x >> 31)
}

func (t *Table) Size() int {
	return len(t.codewords)
}

// Codeword returns the codeword at index i.
func (t *Table) Codeword(i int) uint64 {
	return t.codewords[i]
}

// Hash is a running hash value over a shared table.
type Hash struct {
	table *Table
	value uint64
}

func NewHash(t *Table) Hash {
	return Hash{table: t}
}

func (h *Hash) Value() uint64 {
	return h.value
}

// Modify XORs the hash with the codewords at the given indices. Since XOR
// is its own inverse, calling Modify twice with the same indices restores
// the previous value.
func (h *Hash) Modify(indices ...int) {
	for _, i := range indices {
		h.value ^= h.table.codewords[i]
	}
}

func (h *Hash) Table() *Table {
	return h.table
}
