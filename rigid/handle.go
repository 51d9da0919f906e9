package rigid

import "strconv"

// BodyID is an opaque reference to a body slot inside a World. It packs a
// dense slot index with a generation counter so a handle held across the
// slot's reuse fails validation instead of aliasing the new body. The zero
// value is the invalid sentinel.
type BodyID uint64

type bodyIndex uint32
type generation uint32

const bodyIndexBits = 32

// InvalidBodyID is the unset sentinel.
const InvalidBodyID BodyID = 0

func makeBodyID(idx bodyIndex, gen generation) BodyID {
	return BodyID(uint64(gen)<<bodyIndexBits | uint64(idx))
}

func (id BodyID) index() bodyIndex {
	return bodyIndex(uint32(id))
}

func (id BodyID) generation() generation {
	return generation(uint32(uint64(id) >> bodyIndexBits))
}

func (id BodyID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id BodyID) Valid() bool {
	return id > 0
}
