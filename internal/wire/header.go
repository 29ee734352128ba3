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

import "unsafe"

// Header is the fixed prefix of every message placed on a port: its tag and
// the total size of the message including this header. Both fields are
// 4-byte aligned by construction, the same discipline
// internal/buffer/out_message.go enforces for fusekernel.OutHeader in the
// teacher this package is adapted from.
type Header struct {
	Tag  Tag
	Size uint32
}

// HeaderSize is the byte size of Header as placed at the front of every
// buffer. Verified against unsafe.Sizeof at init time below so a change to
// Header's field layout can never silently desynchronize callers that
// assume this constant.
const HeaderSize = 8

func init() {
	if unsafe.Sizeof(Header{}) != HeaderSize {
		panic("wire: Header size assumption violated")
	}
	if unsafe.Alignof(Header{}) != 4 {
		panic("wire: Header alignment assumption violated")
	}
}
