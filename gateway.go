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

package userlandfs

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/haiku/userlandfs/filesystem"
	"github.com/haiku/userlandfs/gwops"
	"github.com/haiku/userlandfs/internal/reqhandler"
	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/ioctlcfg"
	"github.com/haiku/userlandfs/vnode"
	"github.com/haiku/userlandfs/volume"
)

// nestedCallbacks answers a reverse-dispatch call nested inside an
// awaited reply (spec.md §4.2) by forwarding to a Volume. It exists as
// its own type, rather than using *volume.Volume directly, to break the
// construction cycle: reqhandler.NewKernelRequestHandler needs a
// Callbacks value before volume.New can return the Volume it should
// forward to, so Mount builds one with vol left nil and fills it in
// immediately after constructing the Volume -- by which point no request
// has reached the wire yet.
type nestedCallbacks struct {
	vol *volume.Volume
}

func (n *nestedCallbacks) GetVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return n.vol.GetVNode(ctx, vnid)
}
func (n *nestedCallbacks) PutVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return n.vol.PutVNode(ctx, vnid)
}
func (n *nestedCallbacks) NewVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error {
	return n.vol.NewVNode(ctx, vnid, opaque)
}
func (n *nestedCallbacks) PublishVNode(ctx context.Context, vnid vnode.VNodeID, opaque []byte) error {
	return n.vol.PublishVNode(ctx, vnid, opaque)
}
func (n *nestedCallbacks) RemoveVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return n.vol.RemoveVNode(ctx, vnid)
}
func (n *nestedCallbacks) UnremoveVNode(ctx context.Context, vnid vnode.VNodeID) error {
	return n.vol.UnremoveVNode(ctx, vnid)
}
func (n *nestedCallbacks) GetVNodeRemoved(ctx context.Context, vnid vnode.VNodeID) (bool, error) {
	return n.vol.GetVNodeRemoved(ctx, vnid)
}
func (n *nestedCallbacks) NotifyListener(ctx context.Context, req *wire.Decoder) error {
	return n.vol.NotifyListener(ctx, req)
}
func (n *nestedCallbacks) NotifySelectEvent(ctx context.Context, req *wire.Decoder) error {
	return n.vol.NotifySelectEvent(ctx, req)
}
func (n *nestedCallbacks) SendNotification(ctx context.Context, req *wire.Decoder) error {
	return n.vol.SendNotification(ctx, req)
}

var _ reqhandler.Callbacks = (*nestedCallbacks)(nil)

// flavorRegistry is the process-wide table of per-flavor FileSystem
// singletons, keyed by flavor name. A flavor's FileSystem is created on
// its first Mount and destroyed once its last Volume unmounts, mirroring
// UserlandFS::CreateFileSystem/RemoveFileSystem's reference-counted
// lifecycle in the system this module reimplements.
var (
	flavorsMu sync.Mutex
	flavors   = map[string]*flavorEntry{}
)

type flavorEntry struct {
	fs       *filesystem.FileSystem
	nextVol  gwops.VolumeID
	volCount int
}

// acquireFileSystem returns the FileSystem for flavor, connecting a new
// one if this is the first mount of that flavor. The returned VolumeID is
// unique among volumes currently mounted under this flavor.
func acquireFileSystem(ctx context.Context, flavor string, cfg MountConfig) (*filesystem.FileSystem, gwops.VolumeID, error) {
	flavorsMu.Lock()
	defer flavorsMu.Unlock()

	entry, ok := flavors[flavor]
	if !ok {
		fsCfg := filesystem.Config{
			Flavor:        flavor,
			Connector:     cfg.Connector,
			Settings:      cfg.Settings,
			Notifications: cfg.Notifications,
			Log:           cfg.Log,
		}
		fs := filesystem.New(fsCfg)
		if err := fs.Connect(ctx); err != nil {
			return nil, 0, errors.Wrapf(err, "userlandfs: connecting flavor %q", flavor)
		}
		entry = &flavorEntry{fs: fs, nextVol: 1}
		flavors[flavor] = entry
	}

	id := entry.nextVol
	entry.nextVol++
	entry.volCount++
	return entry.fs, id, nil
}

// releaseFileSystem drops one volume's claim on flavor's FileSystem,
// shutting it down and forgetting it once the last volume is gone --
// the gateway analogue of spec.md §3's "FileSystem... destroyed when its
// last volume is unmounted".
func releaseFileSystem(ctx context.Context, flavor string) error {
	flavorsMu.Lock()
	entry, ok := flavors[flavor]
	if !ok {
		flavorsMu.Unlock()
		return nil
	}
	entry.volCount--
	last := entry.volCount == 0
	if last {
		delete(flavors, flavor)
	}
	flavorsMu.Unlock()

	if !last {
		return nil
	}
	return entry.fs.Shutdown(ctx)
}

// MountConfig bundles everything Mount needs beyond the mount point
// itself. Connector and Settings matter only for the first Mount of a
// given flavor in this process -- later mounts of an already-connected
// flavor share its FileSystem and ignore them, the way
// a second bfs volume shares the already-loaded bfs driver-settings
// document rather than re-reading it (SPEC_FULL.md §4's "IOCtl descriptor
// registry is per-flavor, loaded once").
type MountConfig struct {
	// Flavor names the filesystem driver (e.g. "bfs", "ext2"); it selects
	// which FileSystem singleton this mount joins.
	Flavor string

	// Host supplies the real vnode primitives (get_vnode, put_vnode, ...)
	// this Volume calls into. Required on every Mount.
	Host volume.HostVFS

	// Connector performs the FS-connect handshake. Required the first
	// time a flavor is mounted in this process; ignored afterwards.
	Connector filesystem.Connector

	// Settings is the parsed driver-settings document. Ignored on mounts
	// after the first for a given flavor.
	Settings *ioctlcfg.Settings

	// Notifications receives notification traffic. The FileSystem takes
	// it from the first Mount of a flavor only, for traffic on its
	// notification port; every Mount also hands it to its own Volume for
	// notifications nested in that volume's forward calls.
	Notifications volume.NotificationSink

	Log logrus.FieldLogger
}

// Mount connects to cfg.Flavor's userspace server (starting it, via
// cfg.Connector, if this is the first mount of that flavor in this
// process) and mounts one volume under it at mountPoint. This function
// blocks until the mount handshake completes, the direct analogue of
// mounted_file_system.go's Mount blocking until bazilfuse reports ready.
func Mount(ctx context.Context, device, mountPoint, parameters string, flags uint32, cfg MountConfig) (mv *MountedVolume, err error) {
	logger := getLogger()
	logger.Printf("Mount: flavor=%s device=%s mountPoint=%s", cfg.Flavor, device, mountPoint)

	fs, id, err := acquireFileSystem(ctx, cfg.Flavor, cfg)
	if err != nil {
		return nil, err
	}

	nc := &nestedCallbacks{}
	v := volume.New(id, volume.Config{
		Pool:          fs.Pool(),
		Nested:        reqhandler.NewKernelRequestHandler(nc),
		Host:          cfg.Host,
		Notifications: cfg.Notifications,
		Log:           cfg.Log,
		Flavor:        cfg.Flavor,
	})
	nc.vol = v

	if err := v.Mount(ctx, device, mountPoint, parameters, flags); err != nil {
		_ = releaseFileSystem(ctx, cfg.Flavor)
		return nil, errors.Wrap(err, "userlandfs: mount handshake")
	}

	fs.AddVolume(v)

	mv = &MountedVolume{
		flavor:              cfg.Flavor,
		dir:                 mountPoint,
		device:              device,
		fs:                  fs,
		volume:              v,
		joinStatusAvailable: make(chan struct{}),
	}

	logger.Printf("Mount: flavor=%s mountPoint=%s complete, root vnode=%v", cfg.Flavor, mountPoint, v.RootVNode())
	return mv, nil
}
