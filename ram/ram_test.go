package ram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAndWord(t *testing.T) {
	r := New()
	r.Load(0, []uint16{0x7c01, 0x0030, 0x7de1})
	assert.Equal(t, uint16(0x7c01), r.Word(0))
	assert.Equal(t, uint16(0x0030), r.Word(1))
	assert.Equal(t, uint16(0x7de1), r.Word(2))
}

func TestLoadTruncatesAtEndOfAddressSpace(t *testing.T) {
	r := New()
	data := make([]uint16, 4)
	for i := range data {
		data[i] = uint16(i + 1)
	}
	n := r.Load(Size-2, data)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint16(1), r.Word(Size-2))
	assert.Equal(t, uint16(2), r.Word(Size-1))
}

func TestRangeHalfOpen(t *testing.T) {
	r := New()
	r.Load(10, []uint16{1, 2, 3, 4})
	v := r.Range(10, 13)
	assert.Equal(t, []uint16{1, 2, 3}, v)
}

func TestRangeWrappedIsEmpty(t *testing.T) {
	r := New()
	assert.Nil(t, r.Range(10, 5))
}

func TestFromAndTo(t *testing.T) {
	r := New()
	r.SetWord(Size-1, 0xbeef)
	from := r.From(Size - 1)
	assert.Equal(t, []uint16{0xbeef}, from)

	to := r.To(1)
	r.SetWord(0, 0xface)
	assert.Equal(t, uint16(0xface), to[0])
}

func TestReadTruncatesAtEndOfAddressSpace(t *testing.T) {
	r := New()
	r.SetWord(Size-1, 0xaaaa)
	out := r.Read(Size-1, 4)
	assert.Len(t, out, 1)
	assert.Equal(t, uint16(0xaaaa), out[0])
}

func TestWritesAreIndependentOfReadSlice(t *testing.T) {
	r := New()
	r.Load(0, []uint16{1, 2, 3})
	out := r.Read(0, 3)
	out[0] = 99
	assert.Equal(t, uint16(1), r.Word(0))
}
