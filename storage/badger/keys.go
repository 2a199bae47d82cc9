package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/nyaya/core"
)

// Key prefixes for different data types
const (
	sectionPrefix = "secrec:"
	sectionIDSeq  = "secseq"
)

// makeSectionKey generates a key for a section by ID.
// Format: prefix + 8 byte ID
func makeSectionKey(id core.ID) []byte {
	buf := make([]byte, len(sectionPrefix)+8)
	offset := copy(buf, sectionPrefix)
	// Write in BigEndian order so lexicographic sort matches ID order
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// sectionIDFromKey extracts the ID from a key built by makeSectionKey.
func sectionIDFromKey(key []byte) (core.ID, bool) {
	if len(key) != len(sectionPrefix)+8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(sectionPrefix):])), true
}

// makeCheckpointKey generates a key for a named checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", name))
}
