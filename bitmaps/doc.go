// Package bitmaps answers predicate queries over packed arrays.
//
// Results are [roaring.Bitmap] of matching element indices, so they can be
// combined with other bitmaps by the caller.
package bitmaps
