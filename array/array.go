// Package array implements dense fixed width arrays of unsigned integers.
//
// A [Fixed] stores every element in exactly Width bits of a flat slice of 32 bit
// words. Element i occupies the absolute bit positions [i*Width, (i+1)*Width-1]
// where bit 0 is the least significant bit of the first word, bit 32 the least
// significant bit of the second word and so on. There is no padding between
// elements, an element may straddle two adjacent words.
//
// Fixed has no internal synchronization. Concurrent readers are fine, writers
// need exclusive access.
package array

import (
	"iter"
	"math/bits"
	"slices"
	"unsafe"

	"github.com/gernest/bitpack/internal/checksum"
	"github.com/pkg/errors"
)

// Word is the storage unit of a Fixed array.
type Word = uint32

// WordBits is the size of Word in bits.
const WordBits = int(unsafe.Sizeof(Word(0))) * 8

// ErrIndexOutOfBounds is returned when accessing an index outside [0, Len()).
var ErrIndexOutOfBounds = errors.New("array: index out of bounds")

// Element is the set of types that can be stored in a Fixed array.
type Element interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Fixed is a bit packed array with a fixed element width.
type Fixed[T Element] struct {
	data   []Word
	width  int
	length int
}

// New packs values into a new array using width bits per element. Values wider
// than width are truncated to their low width bits. values is not retained.
//
// width must be in [1, MaxWidth[T]()], New panics otherwise.
func New[T Element](width int, values []T) *Fixed[T] {
	assert(width > 0 && width <= MaxWidth[T](), "array: invalid element width")
	a := &Fixed[T]{
		data:   make([]Word, divRoundUp(len(values)*width, WordBits)),
		width:  width,
		length: len(values),
	}
	for i, v := range values {
		a.set(i, v)
	}
	return a
}

// MaxWidth returns the largest element width supported for T.
func MaxWidth[T Element]() int {
	var t T
	return min(WordBits, int(unsafe.Sizeof(t))*8)
}

// MinWidth returns the smallest width able to hold every value. It is never
// less than 1.
func MinWidth[T Element](values []T) int {
	w := 1
	for _, v := range values {
		w = max(w, bits.Len64(uint64(v)))
	}
	return w
}

// Len returns number of elements in a.
func (a *Fixed[T]) Len() int {
	return a.length
}

// Width returns number of bits used by each element.
func (a *Fixed[T]) Width() int {
	return a.width
}

// Size returns size in bytes of the word storage.
func (a *Fixed[T]) Size() int {
	return len(a.data) * WordBits / 8
}

// Sum returns a fingerprint of the packed contents. Two arrays with the same
// width and elements have the same sum on the same host.
func (a *Fixed[T]) Sum() uint64 {
	return checksum.Words(a.data)
}

// Reset sets all elements to zero, the length is unchanged.
func (a *Fixed[T]) Reset() {
	clear(a.data)
}

// Get returns element at index i.
func (a *Fixed[T]) Get(i int) (T, error) {
	if err := a.check(i); err != nil {
		return 0, err
	}
	return a.get(i), nil
}

// At is like Get but panics when i is out of bounds.
func (a *Fixed[T]) At(i int) T {
	if err := a.check(i); err != nil {
		panic(err)
	}
	return a.get(i)
}

// Set stores the low Width bits of v at index i. No other element is modified.
func (a *Fixed[T]) Set(i int, v T) error {
	if err := a.check(i); err != nil {
		return err
	}
	a.set(i, v)
	return nil
}

// Iterator walks elements of a Fixed array in index order. Once exhausted Next
// keeps returning false.
//
// Elements are decoded lazily. Calling Set while iterating is not supported,
// the iterator may or may not observe the new value.
type Iterator[T Element] struct {
	a *Fixed[T]
	i int
}

// Iter returns a new Iterator positioned at the first element.
func (a *Fixed[T]) Iter() *Iterator[T] {
	return &Iterator[T]{a: a}
}

// Next returns the next element and true, or zero and false after the last one.
func (it *Iterator[T]) Next() (v T, ok bool) {
	if it.i >= it.a.length {
		return
	}
	v = it.a.get(it.i)
	it.i++
	return v, true
}

// All returns an iterator over elements in index order. As with [Iterator],
// the array must not be modified while iterating.
func (a *Fixed[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range a.length {
			if !yield(a.get(i)) {
				return
			}
		}
	}
}

// Enumerate is like All but also yields the element index.
func (a *Fixed[T]) Enumerate() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range a.length {
			if !yield(i, a.get(i)) {
				return
			}
		}
	}
}

// Values decodes all elements into a new slice. Range over the result when
// elements are modified inside the loop.
func (a *Fixed[T]) Values() []T {
	return slices.AppendSeq(make([]T, 0, a.length), a.All())
}

func (a *Fixed[T]) check(i int) error {
	if i < 0 || i >= a.length {
		return errors.Wrapf(ErrIndexOutOfBounds, "index %d with length %d", i, a.length)
	}
	return nil
}

// get decodes element i. The caller must ensure i is in bounds.
func (a *Fixed[T]) get(i int) T {
	first := i * a.width
	last := first + a.width - 1
	w, off := first/WordBits, uint(first%WordBits)
	mask := a.mask()

	if w == last/WordBits {
		return T(a.data[w] >> off & mask)
	}
	// straddling: low part is the top of data[w], the rest is the bottom of data[w+1].
	low := uint(WordBits) - off
	return T((a.data[w]>>off | a.data[w+1]<<low) & mask)
}

// set encodes v at index i. The caller must ensure i is in bounds.
func (a *Fixed[T]) set(i int, v T) {
	first := i * a.width
	last := first + a.width - 1
	w, off := first/WordBits, uint(first%WordBits)
	mask := a.mask()
	x := Word(v) & mask

	if w == last/WordBits {
		a.data[w] = a.data[w]&^(mask<<off) | x<<off
		return
	}
	low := uint(WordBits) - off
	high := uint(a.width) - low
	a.data[w] = a.data[w]&(Word(1)<<off-1) | x<<off
	a.data[w+1] = a.data[w+1]&^(Word(1)<<high-1) | x>>low
}

// mask has the low width bits set. Shifting by WordBits yields zero, so a full
// word width produces all ones.
func (a *Fixed[T]) mask() Word {
	return Word(1)<<uint(a.width) - 1
}

// divRoundUp returns ceil(x/y) for non negative x without computing x+y-1.
// y must not be zero.
func divRoundUp(x, y int) int {
	assert(y != 0, "array: zero divisor")
	if x == 0 {
		return 0
	}
	return 1 + (x-1)/y
}

func assert(b bool, msg string) {
	if !b {
		panic(msg)
	}
}
