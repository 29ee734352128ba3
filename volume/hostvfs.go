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

import "github.com/haiku/userlandfs/vnode"

// HostVFS is the embedding host's own vnode primitives -- get_vnode,
// put_vnode, new_vnode, publish_vnode, remove_vnode, unremove_vnode and
// get_vnode_removed in the system this package models, where they are VFS
// kernel entry points Volume calls through thin wrappers (GetVNode,
// PutVNode, ...). Go has no kernel VFS of its own to wrap, so this
// interface is the seam: the embedder supplies a real implementation,
// backed by its own virtual filesystem layer, through the root gateway
// package's MountConfig.Host, and tests supply an in-memory one (see
// fakeHost in volume_test.go).
type HostVFS interface {
	GetVNode(vnid vnode.VNodeID) error
	PutVNode(vnid vnode.VNodeID) error
	NewVNode(vnid vnode.VNodeID, opaque []byte) error
	PublishVNode(vnid vnode.VNodeID, opaque []byte) error
	RemoveVNode(vnid vnode.VNodeID) error
	UnremoveVNode(vnid vnode.VNodeID) error
	GetVNodeRemoved(vnid vnode.VNodeID) (removed bool, err error)
}

// NotificationSink receives the three kinds of unsolicited message a
// server can push to the gateway outside of any forward/reply exchange.
// The filesystem package's notification thread delivers the ones arriving
// on the notification port to the FileSystem's own sink
// (filesystem.Config.Notifications); a Volume delivers the ones nested in
// its own forward calls to its Config.Notifications.
type NotificationSink interface {
	NotifyListener(op uint32, device int32, directory, vnid vnode.VNodeID, name string) error
	NotifySelectEvent(token [16]byte, event uint32) error
	SendNotification(payload []byte) error
}
