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

// Package userlandfs turns a host's virtual-filesystem calling convention
// into a request/reply exchange with a separate userspace filesystem
// server process.
//
// The primary elements of interest are:
//
//  *  Mount, which connects to a flavor's FileSystem (starting it if this
//     is the first mount of that flavor) and mounts one Volume under it.
//
//  *  MountedVolume, the handle Mount returns: Dir/Device report what was
//     mounted, and Join blocks until the volume is unmounted.
//
//  *  volume.HostVFS and volume.NotificationSink, the two interfaces an
//     embedder implements to supply this package with real vnode
//     primitives and a real notification sink.
package userlandfs
