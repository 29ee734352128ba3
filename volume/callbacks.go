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

	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/vnode"
)

// The methods in this file implement reqhandler.Callbacks: they answer
// the reverse-dispatch calls a server makes against the gateway while a
// forward request is outstanding. Each is grounded directly on the
// matching wrapper method in Volume.cpp (GetVNode, PutVNode, NewVNode,
// PublishVNode, RemoveVNode, UnremoveVNode, GetVNodeRemoved), including
// the asymmetry DESIGN.md's Open Question (a) entry documents: NewVNode
// does not touch the counter, PublishVNode always does.

// GetVNode asks the host for a reference to vnid and, on success, records
// one more outstanding reference to it.
func (v *Volume) GetVNode(ctx context.Context, vnid vnode.VNodeID) error {
	if err := v.cfg.Host.GetVNode(vnid); err != nil {
		return err
	}
	v.counter.Increment(vnid)
	return nil
}

// PutVNode releases one reference to vnid and, on success, records it.
func (v *Volume) PutVNode(ctx context.Context, vnid vnode.VNodeID) error {
	if err := v.cfg.Host.PutVNode(vnid); err != nil {
		return err
	}
	v.counter.Decrement(vnid)
	return nil
}

// NewVNode introduces a vnode the server is creating fresh. It
// deliberately does not touch the vnode counter -- see DESIGN.md's Open
// Question (a) entry for why this asymmetry with PublishVNode is
// preserved rather than "fixed".
func (v *Volume) NewVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error {
	if err := v.cfg.Host.NewVNode(vnid, opaque); err != nil {
		return err
	}
	v.rememberIfMounting(vnid, opaque)
	return nil
}

// PublishVNode introduces a vnode the server is making visible to the VFS
// and, on success, records an outstanding reference to it -- unlike
// NewVNode, always.
func (v *Volume) PublishVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error {
	if err := v.cfg.Host.PublishVNode(vnid, opaque); err != nil {
		return err
	}
	v.rememberIfMounting(vnid, opaque)
	v.counter.Increment(vnid)
	return nil
}

// RemoveVNode and UnremoveVNode are pure passthroughs to the host; neither
// touches the vnode counter in the system this models.
func (v *Volume) RemoveVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return v.cfg.Host.RemoveVNode(vnid)
}

func (v *Volume) UnremoveVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return v.cfg.Host.UnremoveVNode(vnid)
}

func (v *Volume) GetVNodeRemoved(ctx context.Context, vnid vnode.VNodeID) (bool, error) {
	return v.cfg.Host.GetVNodeRemoved(vnid)
}

// rememberIfMounting records vnid's opaque handle in the transient
// mount-vnodes map while Mount is still in progress (spec.md §3). Nothing
// in this package reads the map back.
func (v *Volume) rememberIfMounting(vnid vnode.VNodeID, opaque []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mounting {
		v.mountPendingVnodes[vnid] = append([]byte(nil), opaque...)
	}
}

// NotifyListener, NotifySelectEvent and SendNotification forward to
// whatever NotificationSink the embedder configured, or are silently
// dropped (returning nil) if none was configured -- a volume that doesn't care about
// unsolicited notifications is a valid configuration, matching spec.md's
// framing of the notification thread as best-effort delivery.
//
// Field offsets below mirror gwops.NotifyListenerRequest: Op uint32 (0),
// Device int32 (4), Directory vnode id (8), VNode id (16), Name string
// field descriptor (24).
func (v *Volume) NotifyListener(ctx context.Context, req *wire.Decoder) error {
	if v.cfg.Notifications == nil {
		return nil
	}
	op := req.Uint32(0)
	device := int32(req.Uint32(4))
	directory := vnode.VNodeID(req.Uint64(8))
	vnid := vnode.VNodeID(req.Uint64(16))
	name, err := req.String(24)
	if err != nil {
		return err
	}
	return v.cfg.Notifications.NotifyListener(op, device, directory, vnid, name)
}

// Field offsets mirror gwops.NotifySelectEventRequest: Token [16]byte (0),
// Event uint32 (16).
func (v *Volume) NotifySelectEvent(ctx context.Context, req *wire.Decoder) error {
	if v.cfg.Notifications == nil {
		return nil
	}
	var token [16]byte
	copy(token[:], req.Raw(0, 16))
	event := req.Uint32(16)
	return v.cfg.Notifications.NotifySelectEvent(token, event)
}

// SendNotification hands the driver-defined payload straight through.
func (v *Volume) SendNotification(ctx context.Context, req *wire.Decoder) error {
	if v.cfg.Notifications == nil {
		return nil
	}
	return v.cfg.Notifications.SendNotification(req.Payload())
}
