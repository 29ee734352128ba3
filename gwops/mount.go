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

import "github.com/haiku/userlandfs/vnode"

// Capabilities is the bitset the server advertises in its MountResponse;
// every forward operation's first check is a bit test against this set,
// never a round trip, per the capability-flags design in SPEC_FULL.md §4.
type Capabilities uint64

const (
	CapAttributes Capabilities = 1 << iota
	CapIndexDirs
	CapQueries
	CapSymlinks
)

func (c Capabilities) Has(bit Capabilities) bool {
	return c&bit != 0
}

// MountRequest is sent once, when a volume is first mounted.
type MountRequest struct {
	Device     string
	MountPoint string
	Flags      uint32
	Parameters string
}

// MountResponse carries everything Volume needs to cache at mount time: the
// root vnode, its opaque server-side handle (so "." lookups still work
// after disconnect, see SPEC_FULL.md §4), and the capability bitset.
type MountResponse struct {
	RootVNode    vnode.VNodeID
	RootOpaque   []byte
	Capabilities Capabilities
}

// UnmountRequest is sent once, tearing down a previously mounted volume.
type UnmountRequest struct{}

// ReadFSInfoRequest asks the server for volume-level statistics (statfs).
type ReadFSInfoRequest struct{}

// ReadFSInfoResponse is statvfs-shaped.
type ReadFSInfoResponse struct {
	BlockSize   uint32
	TotalBlocks uint64
	FreeBlocks  uint64
	TotalNodes  uint64
	FreeNodes   uint64
	VolumeName  string
}
