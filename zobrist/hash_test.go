package zobrist

import (
	"testing"

	"github.com/matryer/is"
)

func TestInvalidSize(t *testing.T) {
	is := is.New(t)
	_, err := NewTable(0)
	is.Equal(err, ErrInvalidSize)
	_, err = NewSeededTable(-3, 1)
	is.Equal(err, ErrInvalidSize)
}

func TestSeededTableIsReproducible(t *testing.T) {
	is := is.New(t)
	t1, err := NewSeededTable(166, 42)
	is.NoErr(err)
	t2, err := NewSeededTable(166, 42)
	is.NoErr(err)
	t3, err := NewSeededTable(166, 43)
	is.NoErr(err)
	is.Equal(t1.Size(), 166)
	differs := false
	for i := 0; i < t1.Size(); i++ {
		is.Equal(t1.Codeword(i), t2.Codeword(i))
		if t1.Codeword(i) != t3.Codeword(i) {
			differs = true
		}
	}
	is.True(differs)
}

func TestRandomTableNonZero(t *testing.T) {
	is := is.New(t)
	tbl, err := NewTable(166)
	is.NoErr(err)
	for i := 0; i < tbl.Size(); i++ {
		is.True(tbl.Codeword(i) != 0)
	}
}

func TestModifyAndUnmodify(t *testing.T) {
	is := is.New(t)
	tbl, err := NewSeededTable(20, 7)
	is.NoErr(err)
	h := NewHash(tbl)
	is.Equal(h.Value(), uint64(0))

	h.Modify(3)
	h1 := h.Value()
	is.Equal(h1, tbl.Codeword(3))
	h.Modify(5, 11)
	h2 := h.Value()
	is.True(h2 != h1) // extremely unlikely to collide
	// And unplay these in reverse order.
	h.Modify(5, 11)
	is.Equal(h.Value(), h1)
	h.Modify(3)
	is.Equal(h.Value(), uint64(0))
}

func TestHashOrderIndependent(t *testing.T) {
	is := is.New(t)
	tbl, err := NewSeededTable(20, 7)
	is.NoErr(err)
	a := NewHash(tbl)
	b := NewHash(tbl)
	a.Modify(1, 2, 3)
	b.Modify(3)
	b.Modify(1)
	b.Modify(2)
	is.Equal(a.Value(), b.Value())
	is.Equal(a.Table(), tbl)
}
