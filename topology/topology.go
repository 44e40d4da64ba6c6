// Package topology computes peer ranks for ring and
// hypercube communication patterns.
//
// All functions are pure; they take the caller's rank and
// the number of ranks explicitly.
package topology

import (
	"math/bits"
	"math/rand"
)

// Next returns the rank after rank on a ring.
func Next(rank, size int) int {
	return (rank + 1) % size
}

// Prev returns the rank before rank on a ring.
func Prev(rank, size int) int {
	if rank == 0 {
		return size - 1
	}
	return rank - 1
}

// CubePartner returns rank's partner along a hypercube
// dimension.
//
// The result is not checked against the number of ranks.
func CubePartner(rank, dimension int) int {
	return rank ^ (1 << dimension)
}

// Wrap maps any integer onto a rank in [0, size) that is
// congruent to it modulo size.
func Wrap(rank, size int) int {
	res := rank % size
	if res < 0 {
		res += size
	}
	return res
}

// RandomPeer picks a random rank other than rank.
//
// A draw that lands on rank is replaced by Next(rank), so
// the successor is twice as likely as any other peer.
// With a single rank, the only answer is rank itself.
func RandomPeer(r *rand.Rand, rank, size int) int {
	dest := r.Intn(size)
	if dest == rank {
		return Next(rank, size)
	}
	return dest
}

// Dimensions returns the dimension of the hypercube
// formed by size ranks.
// The second result is false if size is not a power of
// two, in which case some cube partners do not exist.
func Dimensions(size int) (int, bool) {
	if size <= 0 || size&(size-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(size)), true
}
