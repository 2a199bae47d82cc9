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


package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/poiesic/nyaya/core"
)

// Record format versions. The first byte of every marshaled section and
// checkpoint carries the version it was written with.
const (
	sectionVersion    byte = 1
	checkpointVersion byte = 1
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return binary.AppendUvarint(nil, uint64(id))
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := &reader{buf: data}
	id := r.uvarint()
	if r.err != nil {
		return 0, r.err
	}
	return core.ID(id), nil
}

// EncodeVector encodes an embedding as little-endian float32 values.
// A nil or empty vector encodes to nil.
func EncodeVector(vec core.Embedding) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeVector decodes bytes produced by EncodeVector.
// Empty input decodes to a nil vector.
func DecodeVector(b []byte) (core.Embedding, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob length %d is not a multiple of 4", ErrSerializationFailed, len(b))
	}
	vec := make(core.Embedding, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// MarshalSection serializes a Section to bytes.
func MarshalSection(section *core.Section) []byte {
	buf := make([]byte, 0, 64+len(section.Title)+len(section.Description)+len(section.Punishment)+len(section.Vector)*4)
	buf = append(buf, sectionVersion)
	buf = binary.AppendUvarint(buf, uint64(section.Id))
	buf = appendString(buf, section.SectionNo)
	buf = appendString(buf, section.Title)
	buf = appendString(buf, section.Description)
	buf = appendString(buf, section.Punishment)
	buf = binary.AppendUvarint(buf, uint64(len(section.Vector)))
	buf = append(buf, EncodeVector(section.Vector)...)
	buf = appendTime(buf, section.InsertedAt)
	buf = appendTime(buf, section.UpdatedAt)
	return buf
}

// UnmarshalSection deserializes a Section from bytes.
func UnmarshalSection(data []byte) (*core.Section, error) {
	r := &reader{buf: data}
	if v := r.readByte(); r.err == nil && v != sectionVersion {
		return nil, fmt.Errorf("%w: section version %d", ErrUnsupportedVersion, v)
	}
	section := &core.Section{}
	section.Id = core.ID(r.uvarint())
	section.SectionNo = r.readString()
	section.Title = r.readString()
	section.Description = r.readString()
	section.Punishment = r.readString()
	section.Vector = r.readVector()
	section.InsertedAt = r.readTime()
	section.UpdatedAt = r.readTime()
	if r.err != nil {
		return nil, r.err
	}
	return section, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := []byte{checkpointVersion}
	buf = appendString(buf, checkpoint.Name)
	buf = appendString(buf, checkpoint.EncoderVersion)
	buf = binary.AppendUvarint(buf, uint64(checkpoint.Dimension))
	buf = binary.AppendUvarint(buf, uint64(checkpoint.Sections))
	buf = appendTime(buf, checkpoint.UpdatedAt)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := &reader{buf: data}
	if v := r.readByte(); r.err == nil && v != checkpointVersion {
		return nil, fmt.Errorf("%w: checkpoint version %d", ErrUnsupportedVersion, v)
	}
	checkpoint := &core.Checkpoint{}
	checkpoint.Name = r.readString()
	checkpoint.EncoderVersion = r.readString()
	checkpoint.Dimension = int(r.uvarint())
	checkpoint.Sections = int(r.uvarint())
	checkpoint.UpdatedAt = r.readTime()
	if r.err != nil {
		return nil, r.err
	}
	return checkpoint, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// appendTime writes t as unix microseconds. The zero time is written as 0.
func appendTime(buf []byte, t time.Time) []byte {
	if t.IsZero() {
		return binary.AppendVarint(buf, 0)
	}
	return binary.AppendVarint(buf, t.UnixMicro())
}

// reader decodes the record format. The first failure sticks in err and
// turns every later read into a no-op.
type reader struct {
	buf []byte
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if len(r.buf) == 0 {
		r.fail(ErrTruncatedData)
		return 0
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	return b
}

func (r *reader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf)
	if n <= 0 {
		r.fail(ErrTruncatedData)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *reader) varint() int64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.buf)
	if n <= 0 {
		r.fail(ErrTruncatedData)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *reader) next(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if uint64(len(r.buf)) < n {
		r.fail(ErrTruncatedData)
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) readString() string {
	b := r.next(r.uvarint())
	if r.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.fail(fmt.Errorf("%w: invalid UTF-8 string", ErrSerializationFailed))
		return ""
	}
	return string(b)
}

func (r *reader) readVector() core.Embedding {
	n := r.uvarint()
	if r.err != nil || n == 0 {
		return nil
	}
	if n > uint64(len(r.buf))/4 {
		r.fail(ErrTruncatedData)
		return nil
	}
	vec, err := DecodeVector(r.next(n * 4))
	if err != nil {
		r.fail(err)
	}
	return vec
}

func (r *reader) readTime() time.Time {
	micros := r.varint()
	if r.err != nil || micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}
