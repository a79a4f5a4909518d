package checksum

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Words returns xxhash checksum of the in-memory bytes of w. The bytes are
// read in host order without copying, so the result is only comparable on
// the same architecture.
func Words(w []uint32) uint64 {
	if len(w) == 0 {
		return xxhash.Sum64(nil)
	}
	return xxhash.Sum64(unsafe.Slice((*byte)(unsafe.Pointer(&w[0])), len(w)*4))
}
