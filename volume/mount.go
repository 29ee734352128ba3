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
	"context"

	"github.com/pkg/errors"

	"github.com/haiku/userlandfs/gwops"
	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/vnode"
)

func capabilitiesFromWire(bits uint32) gwops.Capabilities {
	return gwops.Capabilities(bits)
}

// Mount sends the one-time mount handshake, caching the root vnode, its
// opaque server-side handle, and the server's advertised capability
// bitset -- exactly the data SPEC_FULL.md §4 calls out as needing to
// survive a later disconnect. While Mount is outstanding, any reverse
// new_vnode/publish_vnode callback the server makes is captured into the
// transient mount-vnodes map (spec.md §3), mirroring IsMounting()'s guard
// in Volume.cpp.
func (v *Volume) Mount(ctx context.Context, device, mountPoint, parameters string, flags uint32) error {
	v.mu.Lock()
	v.mounting = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.mounting = false
		v.mu.Unlock()
	}()

	const (
		offFlags      = 0
		offDevice     = 4
		offMountPoint = 12
		offParameters = 20
		fixedSize     = 28
	)
	reply, err := v.sendRequest(ctx, wire.TagMountRequest, func(a *wire.Allocator) {
		a.Grow(fixedSize)
		a.PutUint32(offFlags, flags)
		a.PutString(offDevice, device)
		a.PutString(offMountPoint, mountPoint)
		a.PutString(offParameters, parameters)
	}, wire.TagMountReply)
	if err != nil {
		return errors.Wrap(err, "volume: mount request")
	}

	return v.decodeMountReply(reply)
}

func (v *Volume) decodeMountReply(reply *wire.Decoder) error {
	const (
		offRootVNode = 0
		offOpaque    = 8
		offCaps      = 16
	)
	rootVNode := vnode.VNodeID(reply.Uint64(offRootVNode))
	opaque, err := reply.Bytes(offOpaque)
	if err != nil {
		return errors.Wrap(err, "volume: decoding mount reply")
	}
	caps := reply.Uint32(offCaps)

	v.mu.Lock()
	v.rootVNode = rootVNode
	v.rootOpaque = append([]byte(nil), opaque...)
	v.capabilities = capabilitiesFromWire(caps)
	v.mu.Unlock()
	return nil
}

// Unmount sends the one-time unmount request. The caller is responsible
// for having already drained every open file/dir handle and for disabling
// the port pool afterwards; Unmount itself is just the wire exchange.
func (v *Volume) Unmount(ctx context.Context) error {
	_, err := v.sendRequest(ctx, wire.TagUnmountRequest, func(a *wire.Allocator) {}, wire.TagUnmountReply)
	return errors.Wrap(err, "volume: unmount request")
}
