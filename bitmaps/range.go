// Copyright (c) Geofrey Ernest
// SPDX-License-Identifier: AGPL-3.0-only

package bitmaps

import (
	"iter"
	"math/bits"

	"github.com/gernest/bitpack/array"
	"github.com/gernest/roaring"
)

// OP defines binary operation on an element value.
type OP byte

// Supported operands.
const (
	EQ  OP = 1 + iota // ==
	NEQ               // !=
	LT                // <
	LTE               // <=
	GT                // >
	GTE               // >=

	BETWEEN // ><  (this is like predicate <= x <= end)
)

// Source is a read only view of a packed array.
type Source[T array.Element] interface {
	Width() int
	Enumerate() iter.Seq2[int, T]
}

var _ Source[uint32] = (*array.Fixed[uint32])(nil)

// Range returns indices of all elements of src matching op against predicate.
// end is only used when op == BETWEEN and it is upper inclusive, i.e
// `predicate <= VALUE <= end`.
func Range[T array.Element](src Source[T], op OP, predicate, end T) *roaring.Bitmap {
	switch op {
	case EQ:
		return rangeEQ(src, predicate)
	case NEQ:
		return match(src, func(v T) bool { return v != predicate })
	case LT:
		return match(src, func(v T) bool { return v < predicate })
	case LTE:
		return match(src, func(v T) bool { return v <= predicate })
	case GT:
		return match(src, func(v T) bool { return v > predicate })
	case GTE:
		return match(src, func(v T) bool { return v >= predicate })
	case BETWEEN:
		switch {
		case predicate == end:
			return rangeEQ(src, predicate)
		case predicate > end:
			return roaring.NewBitmap()
		}
		return match(src, func(v T) bool { return predicate <= v && v <= end })
	default:
		return roaring.NewBitmap()
	}
}

// Transpose returns a bitmap of all distinct element values in src.
func Transpose[T array.Element](src Source[T]) *roaring.Bitmap {
	ra := roaring.NewBitmap()
	for _, v := range src.Enumerate() {
		ra.DirectAdd(uint64(v))
	}
	return ra
}

func rangeEQ[T array.Element](src Source[T], predicate T) *roaring.Bitmap {
	if bits.Len64(uint64(predicate)) > src.Width() {
		// Predicate is out of range.
		return roaring.NewBitmap()
	}
	return match(src, func(v T) bool { return v == predicate })
}

func match[T array.Element](src Source[T], fn func(T) bool) *roaring.Bitmap {
	ra := roaring.NewBitmap()
	for i, v := range src.Enumerate() {
		if fn(v) {
			ra.DirectAdd(uint64(i))
		}
	}
	return ra
}
