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

package vnode

import "errors"

// Returned by PutAllPendingVNodes when the volume's port pool has not yet
// observed a disconnect. The IOCtl that drives this call is only meaningful
// once the server side is known to be gone.
var ErrStillConnected = errors.New("vnode: volume is still connected")

// Returned by PutAllPendingVNodes once counting has been disabled for the
// volume, e.g. after Decrement observed a vnid it had never seen (see
// Counter.Decrement). Increment and Decrement return nothing; once counting
// is disabled they are silent no-ops.
var ErrCountingDisabled = errors.New("vnode: vnode counting is disabled for this volume")

// The five OPEN_* errors below are returned by volume.Volume's
// PutAllPendingVNodes (never by Counter's) when the corresponding
// open-entity counter (see volume.entityCounters) is still non-zero;
// counting is left enabled and no vnode is put in that case, so the call
// can be made again later.
var (
	ErrOpenFiles     = errors.New("vnode: open files remain on this volume")
	ErrOpenDirs      = errors.New("vnode: open directories remain on this volume")
	ErrOpenAttrDirs  = errors.New("vnode: open attribute directories remain on this volume")
	ErrOpenIndexDirs = errors.New("vnode: open index directories remain on this volume")
	ErrOpenQueries   = errors.New("vnode: open queries remain on this volume")
)
