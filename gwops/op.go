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

// Package gwops defines the typed request/response pairs for every VFS hook
// the gateway implements, in the shape fuseops defines one struct per FUSE
// op in the teacher this was adapted from. Where fuseops puns a response
// directly onto a FUSE kernel ABI struct, these responses are plain Go
// structs decoded from a wire.Decoder by the volume package, since this
// protocol's wire format is this module's own rather than an existing
// kernel ABI.
package gwops

import "github.com/haiku/userlandfs/vnode"

// VolumeID identifies one mounted volume to the server.
type VolumeID uint32

// OpHeader carries the addressing information every forward request needs:
// which volume it targets and which vnode (when applicable). Mirrors the
// Header field fuseops.Op implementations all embed first.
type OpHeader struct {
	Volume VolumeID
	VNode  vnode.VNodeID
}

// NodeInfo is the server's representation of an on-disk entry: the vnode
// id the VFS should use plus the server-assigned type, reused by every
// response that hands back a new or looked-up entry (LookupResponse,
// CreateResponse, CreateDirResponse, ...).
type NodeInfo struct {
	VNode vnode.VNodeID
	Mode  uint32
}
