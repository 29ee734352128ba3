// Copyright 2015 Google Inc. All Rights Reserved.
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

package wire

import (
	"encoding/binary"
	"fmt"
)

// alignUp rounds n up to the next multiple of 4, the alignment every
// out-of-line field (strings, blobs) is placed at.
func alignUp(n int) int {
	return (n + 3) &^ 3
}

// Buffer is a growable byte slice with a Header at its front, generalizing
// internal/buffer/out_message.go's fixed-size out-message buffer (which was
// punned directly onto FUSE kernel ABI structs) to this protocol's
// tag+size header plus an arbitrary tag-specific payload.
type Buffer struct {
	b []byte
}

// NewBuffer returns a Buffer with HeaderSize zeroed bytes already reserved
// for the header.
func NewBuffer() *Buffer {
	buf := &Buffer{b: make([]byte, HeaderSize, HeaderSize+64)}
	return buf
}

// SetHeader writes tag and the buffer's current length into the header.
// Call once, after the payload is fully built.
func (buf *Buffer) SetHeader(tag Tag) {
	binary.LittleEndian.PutUint32(buf.b[0:4], uint32(tag))
	binary.LittleEndian.PutUint32(buf.b[4:8], uint32(len(buf.b)))
}

// Grow appends size zeroed bytes to the buffer and returns their offset.
func (buf *Buffer) Grow(size int) int {
	off := len(buf.b)
	buf.b = append(buf.b, make([]byte, size)...)
	return off
}

// Append copies p onto the end of the buffer, padding the buffer up to
// 4-byte alignment first, and returns the offset p was written at.
func (buf *Buffer) Append(p []byte) int {
	buf.padToAlignment()
	off := len(buf.b)
	buf.b = append(buf.b, p...)
	return off
}

// AppendString is a convenience wrapper around Append for string fields; it
// stores the bytes of s with no trailing NUL, since Len is carried
// separately in the field descriptor the caller writes (see allocator.go).
func (buf *Buffer) AppendString(s string) int {
	return buf.Append([]byte(s))
}

func (buf *Buffer) padToAlignment() {
	padded := alignUp(len(buf.b))
	if padded > len(buf.b) {
		buf.b = append(buf.b, make([]byte, padded-len(buf.b))...)
	}
}

// Bytes returns the buffer's current contents, with SetHeader's effect
// included if it has been called.
func (buf *Buffer) Bytes() []byte {
	return buf.b
}

// Len returns the current length of the buffer in bytes.
func (buf *Buffer) Len() int {
	return len(buf.b)
}

// Reset empties the buffer back to just its reserved header space, so it
// can be returned to a pool and reused for the next request.
func (buf *Buffer) Reset() {
	buf.b = buf.b[:HeaderSize]
	for i := range buf.b {
		buf.b[i] = 0
	}
}

// field is the on-the-wire representation of an out-of-line string or blob:
// its byte offset from the start of the buffer and its length. Fixed-size
// request/reply fields embed this directly where the original C++ embeds a
// raw pointer into the shared memory area.
type field struct {
	Offset uint32
	Len    uint32
}

func (f field) bytes(buf []byte) ([]byte, error) {
	end := uint64(f.Offset) + uint64(f.Len)
	if end > uint64(len(buf)) {
		return nil, fmt.Errorf("wire: field [%d,%d) out of range of %d-byte buffer", f.Offset, end, len(buf))
	}
	return buf[f.Offset:end], nil
}
