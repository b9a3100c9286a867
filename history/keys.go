package history

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

const (
	entryPrefix   = "anlent:"
	entryIDPrefix = "anlid:"
)

// makeEntryKey generates the primary key of an entry.
// Format: prefix:timestamp:id, so keys sort by creation time.
func makeEntryKey(createdAt time.Time, id uuid.UUID) []byte {
	buf := make([]byte, len(entryPrefix)+8+len(id))
	offset := copy(buf, entryPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id[:])
	return buf
}

// makeEntryIDKey generates the lookup key mapping an entry ID to its primary key.
func makeEntryIDKey(id uuid.UUID) []byte {
	buf := make([]byte, len(entryIDPrefix)+len(id))
	offset := copy(buf, entryIDPrefix)
	copy(buf[offset:], id[:])
	return buf
}

// entryPrefixEnd is a seek key positioned after every entry key, used to
// start reverse iteration.
func entryPrefixEnd() []byte {
	return append([]byte(entryPrefix), 0xFF)
}
