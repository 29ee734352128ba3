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

// Decoder reads a message built by Allocator: a Header followed by a
// tag-specific fixed payload and, beyond that, the out-of-line data any
// string/blob fields point into. It is the Go analogue of
// RequestDecoder.
type Decoder struct {
	b    []byte
	base int
}

// NewDecoder wraps raw bytes received from a port for reading.
func NewDecoder(b []byte) (*Decoder, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("wire: message of %d bytes shorter than header", len(b))
	}
	d := &Decoder{b: b, base: HeaderSize}
	size := d.Header().Size
	if int(size) != len(b) {
		return nil, fmt.Errorf("wire: header claims %d bytes, got %d", size, len(b))
	}
	return d, nil
}

// Header returns the message's header.
func (d *Decoder) Header() Header {
	return Header{
		Tag:  Tag(binary.LittleEndian.Uint32(d.b[0:4])),
		Size: binary.LittleEndian.Uint32(d.b[4:8]),
	}
}

// Every fixed-offset accessor below takes an offset relative to the start
// of the tag-specific payload, matching Payload() and the symmetric
// Allocator methods: offset 0 is the first byte after the header, not the
// first byte of the message (or, after Skip, the first byte after the
// skipped prefix).

// Uint32 reads a fixed uint32 field at payload offset off.
func (d *Decoder) Uint32(off int) uint32 {
	off += d.base
	return binary.LittleEndian.Uint32(d.b[off : off+4])
}

// Uint64 reads a fixed uint64 field at payload offset off.
func (d *Decoder) Uint64(off int) uint64 {
	off += d.base
	return binary.LittleEndian.Uint64(d.b[off : off+8])
}

// String reads the out-of-line string whose field descriptor lives at
// payload offset fieldOff.
func (d *Decoder) String(fieldOff int) (string, error) {
	p, err := d.fieldBytes(fieldOff)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

// Bytes reads the out-of-line blob whose field descriptor lives at payload
// offset fieldOff.
func (d *Decoder) Bytes(fieldOff int) ([]byte, error) {
	return d.fieldBytes(fieldOff)
}

func (d *Decoder) fieldBytes(fieldOff int) ([]byte, error) {
	fieldOff += d.base
	f := field{
		Offset: binary.LittleEndian.Uint32(d.b[fieldOff : fieldOff+4]),
		Len:    binary.LittleEndian.Uint32(d.b[fieldOff+4 : fieldOff+8]),
	}
	return f.bytes(d.b)
}

// Raw returns the n raw bytes at the fixed payload offset off -- for
// inline fixed-size fields like a 16-byte token, as opposed to the
// out-of-line field descriptors String/Bytes read.
func (d *Decoder) Raw(off, n int) []byte {
	off += d.base
	return d.b[off : off+n]
}

// Payload returns the raw bytes following the header (or, after Skip, the
// skipped prefix), for handlers that decode their own nested structures
// (e.g. reverse-dispatch requests).
func (d *Decoder) Payload() []byte {
	return d.b[d.base:]
}

// Skip returns a view of d whose fixed-field offset 0 starts n bytes
// further into the payload -- for messages that carry a routing prefix
// (e.g. a volume id on the FileSystem's shared notification port) before
// their tag-specific fields begin. Header and the underlying bytes are
// shared with d; only the fixed-field base offset changes, so out-of-line
// field descriptors (always absolute into the whole message) still
// resolve correctly.
func (d *Decoder) Skip(n int) *Decoder {
	return &Decoder{b: d.b, base: d.base + n}
}
