// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package history

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// maxFilters bounds the filter count accepted when decoding an entry.
const maxFilters = 1 << 10

// EntryMUS is the MUS serializer for ledger entries.
var EntryMUS = entryMUS{}

var _ mus.Serializer[Entry] = EntryMUS

type entryMUS struct{}

func (s entryMUS) Marshal(e Entry, bs []byte) (n int) {
	n = raw.Uint64.Marshal(binary.BigEndian.Uint64(e.ID[:8]), bs)
	n += raw.Uint64.Marshal(binary.BigEndian.Uint64(e.ID[8:]), bs[n:])
	n += varint.Int64.Marshal(e.CreatedAt.UnixNano(), bs[n:])
	n += ord.String.Marshal(e.Drug, bs[n:])
	n += ord.String.Marshal(e.Question, bs[n:])
	n += ord.String.Marshal(e.Audience, bs[n:])
	n += ord.String.Marshal(e.Concept, bs[n:])
	n += varint.Int.Marshal(len(e.Filters), bs[n:])
	for _, f := range e.Filters {
		n += ord.String.Marshal(f, bs[n:])
	}
	n += ord.Bool.Marshal(e.Fallback, bs[n:])
	n += ord.Bool.Marshal(e.Degraded, bs[n:])
	n += varint.Int.Marshal(e.Records, bs[n:])
	n += varint.Int.Marshal(e.Evidence, bs[n:])
	n += ord.String.Marshal(e.Fingerprint, bs[n:])
	n += ord.String.Marshal(e.Summary, bs[n:])
	return
}

func (s entryMUS) Unmarshal(bs []byte) (e Entry, n int, err error) {
	var (
		hi, lo uint64
		nanos  int64
		count  int
		n1     int
	)
	if hi, n, err = raw.Uint64.Unmarshal(bs); err != nil {
		return
	}
	if lo, n1, err = raw.Uint64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	binary.BigEndian.PutUint64(e.ID[:8], hi)
	binary.BigEndian.PutUint64(e.ID[8:], lo)

	if nanos, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	e.CreatedAt = time.Unix(0, nanos).UTC()

	for _, field := range []*string{&e.Drug, &e.Question, &e.Audience, &e.Concept} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
	}

	if count, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + n1, err
	}
	n += n1
	if count < 0 || count > maxFilters {
		return e, n, fmt.Errorf("invalid filter count %d", count)
	}
	e.Filters = make([]string, count)
	for i := range e.Filters {
		if e.Filters[i], n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
	}

	for _, field := range []*bool{&e.Fallback, &e.Degraded} {
		if *field, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
	}
	for _, field := range []*int{&e.Records, &e.Evidence} {
		if *field, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
	}
	for _, field := range []*string{&e.Fingerprint, &e.Summary} {
		if *field, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return e, n + n1, err
		}
		n += n1
	}
	return e, n, nil
}

func (s entryMUS) Size(e Entry) (size int) {
	size = raw.Uint64.Size(binary.BigEndian.Uint64(e.ID[:8]))
	size += raw.Uint64.Size(binary.BigEndian.Uint64(e.ID[8:]))
	size += varint.Int64.Size(e.CreatedAt.UnixNano())
	size += ord.String.Size(e.Drug)
	size += ord.String.Size(e.Question)
	size += ord.String.Size(e.Audience)
	size += ord.String.Size(e.Concept)
	size += varint.Int.Size(len(e.Filters))
	for _, f := range e.Filters {
		size += ord.String.Size(f)
	}
	size += ord.Bool.Size(e.Fallback)
	size += ord.Bool.Size(e.Degraded)
	size += varint.Int.Size(e.Records)
	size += varint.Int.Size(e.Evidence)
	size += ord.String.Size(e.Fingerprint)
	size += ord.String.Size(e.Summary)
	return
}

func (s entryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// marshalEntry serializes entry for storage.
func marshalEntry(entry *Entry) []byte {
	buf := make([]byte, EntryMUS.Size(*entry))
	EntryMUS.Marshal(*entry, buf)
	return buf
}

// unmarshalEntry deserializes a stored entry.
func unmarshalEntry(data []byte) (*Entry, error) {
	entry, _, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
