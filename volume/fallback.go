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

package volume

import (
	"os"

	"github.com/haiku/userlandfs/gwops"
	"github.com/haiku/userlandfs/vnode"
)

// The disconnected-fallback contracts below implement spec.md §4.4's
// table: a handful of read-only operations keep answering from data
// cached at Mount time once the server is gone, rather than failing every
// call outright. FreeCookie (ops.go) has its own disconnected fallback.
// Everything else has no fallback and simply returns ENOTCONN once
// IsDisconnected() is true -- callers check that via the normal
// sendRequest path, which fails Pool.Acquire the same way.

// disconnectedLookupFallback answers "." within the root directory from
// the handle cached at Mount time, matching the original's special case
// for LookUpInode(RootInodeID, "."). Every other disconnected lookup has
// no fallback.
func (v *Volume) disconnectedLookupFallback(dir vnode.VNodeID, name string) (gwops.NodeInfo, bool) {
	if !v.IsDisconnected() {
		return gwops.NodeInfo{}, false
	}
	v.mu.RLock()
	root := v.rootVNode
	v.mu.RUnlock()

	if dir == root && name == "." {
		return gwops.NodeInfo{VNode: root, Mode: uint32(os.ModeDir | 0755)}, true
	}
	return gwops.NodeInfo{}, false
}

// disconnectedStatFallback answers ReadStat for the root vnode from a
// synthesized directory entry once disconnected, taking its timestamps
// from the injected Config.Clock. spec.md §4.4 pins the synthesized mode/size exactly: 0777,
// nlink 1, size 512.
func (v *Volume) disconnectedStatFallback(vnid vnode.VNodeID) (gwops.Stat, bool) {
	if !v.IsDisconnected() {
		return gwops.Stat{}, false
	}
	v.mu.RLock()
	root := v.rootVNode
	v.mu.RUnlock()

	if vnid != root {
		return gwops.Stat{}, false
	}

	now := v.cfg.Clock.Now()
	return gwops.Stat{
		Mode:  uint32(os.ModeDir | 0777),
		Nlink: 1,
		Size:  512,
		Atime: now,
		Mtime: now,
		Ctime: now,
	}, true
}

// disconnectedFSInfoFallback synthesizes a degraded statfs result once
// disconnected; ReadFSInfo never fails outright, matching spec.md §4.4's
// row for fs-info ("always succeeds, degraded"), with the exact block size
// (512) and volume name ("<fsname>:disconnected") spec.md §4.4 pins.
func (v *Volume) disconnectedFSInfoFallback() gwops.ReadFSInfoResponse {
	return gwops.ReadFSInfoResponse{
		BlockSize:  512,
		VolumeName: v.cfg.Flavor + ":disconnected",
	}
}
