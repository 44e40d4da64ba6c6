package topology

import (
	"math/rand"
	"testing"
)

func TestRingBijection(t *testing.T) {
	for size := 1; size < 40; size++ {
		for rank := 0; rank < size; rank++ {
			if Next(Prev(rank, size), size) != rank {
				t.Errorf("next(prev(%d)) != %d for size %d", rank, rank, size)
			}
			if Prev(Next(rank, size), size) != rank {
				t.Errorf("prev(next(%d)) != %d for size %d", rank, rank, size)
			}
		}
	}
	if Prev(0, 5) != 4 || Next(4, 5) != 0 {
		t.Error("ring does not wrap around")
	}
}

func TestCubePartner(t *testing.T) {
	for size := 1; size <= 64; size++ {
		for rank := 0; rank < size; rank++ {
			for dim := 0; dim < 7; dim++ {
				partner := CubePartner(rank, dim)
				if partner >= size {
					continue
				}
				if CubePartner(partner, dim) != rank {
					t.Errorf("partner of partner of %d along %d is not %d", rank, dim, rank)
				}
				if partner == rank {
					t.Errorf("rank %d is its own partner along %d", rank, dim)
				}
			}
		}
	}
	if CubePartner(5, 1) != 7 {
		t.Errorf("unexpected partner: %d", CubePartner(5, 1))
	}
}

func TestWrap(t *testing.T) {
	for size := 1; size < 20; size++ {
		for x := -100; x <= 100; x++ {
			res := Wrap(x, size)
			if res < 0 || res >= size {
				t.Fatalf("Wrap(%d, %d) = %d is out of range", x, size, res)
			}
			expected := ((x % size) + size) % size
			if res%size != expected {
				t.Fatalf("Wrap(%d, %d) = %d is not congruent", x, size, res)
			}
		}
	}
	if Wrap(-1, 4) != 3 || Wrap(-9, 4) != 3 || Wrap(9, 4) != 1 {
		t.Error("unexpected wrapped values")
	}
}

func TestRandomPeer(t *testing.T) {
	r := rand.New(rand.NewSource(1337))
	for size := 2; size < 10; size++ {
		seen := map[int]bool{}
		for rank := 0; rank < size; rank++ {
			for i := 0; i < 500; i++ {
				peer := RandomPeer(r, rank, size)
				if peer == rank {
					t.Fatalf("rank %d drew itself", rank)
				}
				if peer < 0 || peer >= size {
					t.Fatalf("peer %d out of range", peer)
				}
				seen[peer] = true
			}
		}
		if len(seen) != size {
			t.Errorf("size %d: only saw %d distinct peers", size, len(seen))
		}
	}
	if RandomPeer(r, 0, 1) != 0 {
		t.Error("single rank should map to itself")
	}
}

func TestDimensions(t *testing.T) {
	for size, expected := range map[int]int{1: 0, 2: 1, 8: 3, 64: 6} {
		if dims, ok := Dimensions(size); !ok || dims != expected {
			t.Errorf("Dimensions(%d) = %d, %v", size, dims, ok)
		}
	}
	for _, size := range []int{0, 3, 6, 12} {
		if _, ok := Dimensions(size); ok {
			t.Errorf("Dimensions(%d) should not be a cube", size)
		}
	}
}
