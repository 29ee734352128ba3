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

import "encoding/binary"

// Allocator builds a single request or reply message: a Header followed by
// a tag-specific fixed-size payload, with room for out-of-line strings and
// blobs appended after it. It is the Go analogue of the C++
// RequestAllocator: that type hands out pointers into a shared memory
// region it owns; this type hands out byte offsets into a Buffer it owns,
// since there is no shared memory region to place strings directly into.
type Allocator struct {
	buf *Buffer
}

// NewAllocator returns an Allocator writing into a fresh Buffer.
func NewAllocator() *Allocator {
	return &Allocator{buf: NewBuffer()}
}

// Grow reserves size bytes of fixed payload and returns their
// payload-relative offset, analogous to RequestAllocator's placement of a
// fixed-size Request struct.
func (a *Allocator) Grow(size int) int {
	return a.buf.Grow(size) - HeaderSize
}

// Every fixed-offset accessor below takes an offset relative to the start
// of the tag-specific payload, not the start of the buffer: offset 0 is
// the first payload byte, immediately after the HeaderSize-byte Header.
// This matches Decoder.Payload() and keeps callers from having to know
// about or reserve room for the header themselves.

// PutUint32 writes v at the fixed payload offset off.
func (a *Allocator) PutUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(a.buf.b[HeaderSize+off:HeaderSize+off+4], v)
}

// PutUint64 writes v at the fixed payload offset off.
func (a *Allocator) PutUint64(off int, v uint64) {
	binary.LittleEndian.PutUint64(a.buf.b[HeaderSize+off:HeaderSize+off+8], v)
}

// PutRaw writes p's bytes directly at the fixed payload offset off -- for
// inline fixed-size fields like a 16-byte token, as opposed to
// PutString/PutBytes which allocate out of line.
func (a *Allocator) PutRaw(off int, p []byte) {
	copy(a.buf.b[HeaderSize+off:HeaderSize+off+len(p)], p)
}

// PutString appends s out of line and writes its field descriptor (offset,
// length) at the fixed payload offset fieldOff, mirroring
// RequestAllocator::AllocateString's out-of-line string allocation.
func (a *Allocator) PutString(fieldOff int, s string) {
	off := a.buf.AppendString(s)
	a.putField(fieldOff, field{Offset: uint32(off), Len: uint32(len(s))})
}

// PutBytes appends p out of line and writes its field descriptor at
// fieldOff.
func (a *Allocator) PutBytes(fieldOff int, p []byte) {
	off := a.buf.Append(p)
	a.putField(fieldOff, field{Offset: uint32(off), Len: uint32(len(p))})
}

func (a *Allocator) putField(fieldOff int, f field) {
	fieldOff += HeaderSize
	binary.LittleEndian.PutUint32(a.buf.b[fieldOff:fieldOff+4], f.Offset)
	binary.LittleEndian.PutUint32(a.buf.b[fieldOff+4:fieldOff+8], f.Len)
}

// Finish stamps the header with tag and the buffer's final length, and
// returns the completed message bytes.
func (a *Allocator) Finish(tag Tag) []byte {
	a.buf.SetHeader(tag)
	return a.buf.Bytes()
}

// Reset returns the allocator to an empty state so it (and its underlying
// Buffer) can be reused for the next request, mirroring the
// freelist-of-message-buffers idiom in message_provider.go.
func (a *Allocator) Reset() {
	a.buf.Reset()
}
