package scattershot

import "encoding/binary"

// hashMix is the Fibonacci hashing constant the combine step adds to each
// byte.
const hashMix = 0x9e3779b97f4a7c15

// maxProbes bounds how many open-addressing slots a hash lookup or
// insertion will try before giving up.
const maxProbes = 100

// notFound is returned by findNewHashIndex and getBlockIndex when every
// probe was exhausted, distinct from a clean "absent" result (see
// DESIGN.md's Open Question decision on this).
const notFound = -1

func combine(h uint64, b byte) uint64 {
	return h ^ (uint64(b) + hashMix + (h << 6) + (h >> 2))
}

// HashBytes runs the explorer's Fibonacci-hashing byte combiner over data.
// Exported so a HashFunc implementation can build a state hash from a
// deterministic byte encoding of its TState without duplicating the
// mixing constant.
func HashBytes(data []byte) uint64 {
	return hashBytes(data)
}

func hashBytes(data []byte) uint64 {
	var h uint64
	for _, b := range data {
		h = combine(h, b)
	}
	return h
}

// rehash produces the next probe's hash from the previous one by re-hashing
// the 64-bit hash value's own bytes on collision.
func rehash(h uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h)
	return hashBytes(buf[:])
}

// findNewHashIndex locates a free slot in table for hash via open
// addressing, or notFound if every probe landed on an occupied slot.
func findNewHashIndex(hash uint64, table []int32) int {
	for i := 0; i < maxProbes; i++ {
		idx := int(hash % uint64(len(table)))
		if table[idx] == notFound {
			return idx
		}
		hash = rehash(hash)
	}
	return notFound
}

// getBlockIndex resolves hash to an existing block index in
// blocks[nMin:nMax] via table, verifying the candidate's state against
// want to guard against hash collisions. It returns nMax on a clean miss
// (the caller should insert a new block), or notFound if every probe was
// exhausted without a definitive answer.
func getBlockIndex[TState comparable](hash uint64, table []int32, blocks []Block[TState], want TState, nMin, nMax int) int {
	for i := 0; i < maxProbes; i++ {
		idx := int(hash % uint64(len(table)))
		blockIndex := int(table[idx])
		if blockIndex == notFound {
			return nMax
		}
		if blockIndex >= nMin && blockIndex < nMax && blocks[blockIndex].State == want {
			return blockIndex
		}
		hash = rehash(hash)
	}
	return notFound
}
