package collcomm

import "fmt"

// A Kind identifies the element type of a message buffer.
//
// The set of kinds is closed; every kind has a fixed wire
// size.
type Kind int

const (
	KindChar Kind = iota
	KindSignedChar
	KindShort
	KindInt
	KindLong
	KindLongLong
	KindUnsignedChar
	KindUnsignedShort
	KindUnsigned
	KindUnsignedLong
	KindUnsignedLongLong
	KindFloat
	KindDouble

	numKinds
)

var kindInfo = [numKinds]struct {
	name string
	size int
}{
	KindChar:             {"MPI_CHAR", 1},
	KindSignedChar:       {"MPI_SIGNED_CHAR", 1},
	KindShort:            {"MPI_SHORT", 2},
	KindInt:              {"MPI_INT", 4},
	KindLong:             {"MPI_LONG", 8},
	KindLongLong:         {"MPI_LONG_LONG", 8},
	KindUnsignedChar:     {"MPI_UNSIGNED_CHAR", 1},
	KindUnsignedShort:    {"MPI_UNSIGNED_SHORT", 2},
	KindUnsigned:         {"MPI_UNSIGNED", 4},
	KindUnsignedLong:     {"MPI_UNSIGNED_LONG", 8},
	KindUnsignedLongLong: {"MPI_UNSIGNED_LONG_LONG", 8},
	KindFloat:            {"MPI_FLOAT", 4},
	KindDouble:           {"MPI_DOUBLE", 8},
}

// Valid checks if k is a registered kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// Size returns the number of bytes one element of the
// kind occupies on the wire.
func (k Kind) Size() int {
	if !k.Valid() {
		panic(fmt.Sprintf("invalid kind: %d", int(k)))
	}
	return kindInfo[k].size
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindInfo[k].name
}
