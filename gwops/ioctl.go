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

package gwops

// IOCtlCommand identifies an ioctl; the framework reserves a low range of
// command values for its own use (PutAllPendingVNodes and friends) and
// everything else is driver-defined, mirroring
// USERLAND_IOCTL_CURRENT_VERSION / USERLAND_IOCTL_PUT_ALL_PENDING_VNODES in
// the system this models.
type IOCtlCommand uint32

const (
	// IOCtlPutAllPendingVNodes drives vnode.Counter.PutAllPendingVNodes for
	// the targeted volume. The only framework-internal command currently
	// defined, matching the original's single USERLAND_IOCTL_* value.
	IOCtlPutAllPendingVNodes IOCtlCommand = 1

	// IOCtlFrameworkCommandsEnd marks the end of the framework-reserved
	// range; driver-defined commands must use values at or above it.
	IOCtlFrameworkCommandsEnd IOCtlCommand = 1000
)

// FrameworkIOCtlVersion is the protocol version a caller must supply in the
// 4-byte little-endian argument of an IOCtlPutAllPendingVNodes request. The
// original guards this command with a 20-byte magic string plus a version
// field; here the magic string is subsumed by IOCtlPutAllPendingVNodes
// already being a distinct, typed command rather than a value smuggled
// inside a generic ioctl buffer, so only the version still needs to travel
// in-band. A mismatched version is rejected as a bad value with no side
// effects, exactly as a magic-string mismatch would be.
const FrameworkIOCtlVersion uint32 = 1

type IOCtlRequest struct {
	Header  OpHeader
	Command IOCtlCommand
	Buffer  []byte
}

type IOCtlResponse struct {
	Buffer []byte
}

type SetFlagsRequest struct {
	Header OpHeader
	Cookie FileCookie
	Flags  uint32
}

type SetFlagsResponse struct{}

// SelectRequest registers a select-sync token against a vnode/event pair;
// the server signals it later via a reverse NotifySelectEvent message.
type SelectRequest struct {
	Header OpHeader
	Event  uint32
	Token  [16]byte // a uuid.UUID's raw bytes; see selectsync.Token
}

type SelectResponse struct{}

type DeselectRequest struct {
	Header OpHeader
	Event  uint32
	Token  [16]byte
}

type DeselectResponse struct{}
