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

// NotifyListenerRequest is sent by the server, unsolicited, whenever
// something changes that a VFS listener (inotify-like consumer) cares
// about. It normally arrives on the FileSystem's dedicated notification
// port, but is also answered when it arrives nested in a forward request
// (see reqhandler.NewKernelRequestHandler).
type NotifyListenerRequest struct {
	Op        uint32
	Device    int32
	Directory vnode.VNodeID
	VNode     vnode.VNodeID
	Name      string
}

// NotifySelectEventRequest signals a previously registered select-sync
// token that its event has occurred.
type NotifySelectEventRequest struct {
	Token [16]byte
	Event uint32
}

// SendNotificationRequest is the driver-defined escape hatch for
// notifications that don't fit NotifyListener's shape (query updates,
// live-query matches, ...).
type SendNotificationRequest struct {
	Payload []byte
}
