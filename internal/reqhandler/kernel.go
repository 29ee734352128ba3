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

package reqhandler

import (
	"context"

	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/vnode"
)

// Callbacks is implemented by a Volume: the set of kernel-side operations
// a server can invoke on the gateway's behalf while a forward request is
// outstanding (or, for notifications, at any time). Each method here
// corresponds to one of Volume's own GetVNode/PutVNode/... wrapper methods
// around the host's vnode primitives in the system this models.
type Callbacks interface {
	GetVNode(ctx context.Context, vnid vnode.VNodeID) error
	PutVNode(ctx context.Context, vnid vnode.VNodeID) error
	NewVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error
	PublishVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error
	RemoveVNode(ctx context.Context, vnid vnode.VNodeID) error
	UnremoveVNode(ctx context.Context, vnid vnode.VNodeID) error
	GetVNodeRemoved(ctx context.Context, vnid vnode.VNodeID) (removed bool, err error)

	NotifyListener(ctx context.Context, req *wire.Decoder) error
	NotifySelectEvent(ctx context.Context, req *wire.Decoder) error
	SendNotification(ctx context.Context, req *wire.Decoder) error
}

const (
	offVnid   = 0 // uint64 vnode id, every reverse vnode op's first field
	offOpaque = 8 // field descriptor for the opaque node blob, where present
)

// NewKernelRequestHandler builds a Table answering every reverse-dispatch
// tag by calling back into cb. When one of the three notification tags
// arrives nested in a forward call, it runs cb's method and returns a nil
// message, so no reply is sent for it. (The filesystem package's
// notification thread, which handles the same tags on the notification
// port, does reply with a status.)
func NewKernelRequestHandler(cb Callbacks) *Table {
	t := &Table{}

	t.Register(wire.TagGetVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		err := cb.GetVNode(ctx, vnid)
		return replyWithStatus(wire.TagGetVNodeReply, err), nil
	}))

	t.Register(wire.TagPutVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		err := cb.PutVNode(ctx, vnid)
		return replyWithStatus(wire.TagPutVNodeReply, err), nil
	}))

	t.Register(wire.TagNewVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		opaque, _ := req.Bytes(offOpaque)
		err := cb.NewVNode(ctx, vnid, opaque)
		return replyWithStatus(wire.TagNewVNodeReply, err), nil
	}))

	t.Register(wire.TagPublishVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		opaque, _ := req.Bytes(offOpaque)
		err := cb.PublishVNode(ctx, vnid, opaque)
		return replyWithStatus(wire.TagPublishVNodeReply, err), nil
	}))

	t.Register(wire.TagRemoveVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		err := cb.RemoveVNode(ctx, vnid)
		return replyWithStatus(wire.TagRemoveVNodeReply, err), nil
	}))

	t.Register(wire.TagUnremoveVNodeRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		err := cb.UnremoveVNode(ctx, vnid)
		return replyWithStatus(wire.TagUnremoveVNodeReply, err), nil
	}))

	t.Register(wire.TagGetVNodeRemovedRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		vnid := vnode.VNodeID(req.Uint64(offVnid))
		removed, err := cb.GetVNodeRemoved(ctx, vnid)
		a := wire.NewAllocator()
		a.Grow(8)
		a.PutUint32(0, statusOf(err))
		if removed {
			a.PutUint32(4, 1)
		}
		return a.Finish(wire.TagGetVNodeRemovedReply), nil
	}))

	t.Register(wire.TagNotifyListenerRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		return nil, cb.NotifyListener(ctx, req)
	}))

	t.Register(wire.TagNotifySelectEventRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		return nil, cb.NotifySelectEvent(ctx, req)
	}))

	t.Register(wire.TagSendNotificationRequest, HandlerFunc(func(ctx context.Context, req *wire.Decoder) ([]byte, error) {
		return nil, cb.SendNotification(ctx, req)
	}))

	return t
}

func replyWithStatus(tag wire.Tag, err error) []byte {
	a := wire.NewAllocator()
	a.Grow(4)
	a.PutUint32(0, statusOf(err))
	return a.Finish(tag)
}

func statusOf(err error) uint32 {
	if err == nil {
		return 0
	}
	return 1
}
