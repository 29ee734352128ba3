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

// Package filesystem implements FileSystem, the per-flavor singleton that
// owns the notification thread, the forward PortPool, the select-sync and
// IOCtl registries, and the set of currently mounted volumes. It is the
// direct analogue of UserlandFS.cpp's per-flavor bookkeeping object in the
// system this module reimplements.
package filesystem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/haiku/userlandfs/gwops"
	"github.com/haiku/userlandfs/internal/port"
	"github.com/haiku/userlandfs/ioctlcfg"
	"github.com/haiku/userlandfs/selectsync"
	"github.com/haiku/userlandfs/volume"
)

// Config bundles everything a FileSystem needs beyond its flavor name.
type Config struct {
	// Flavor is the filesystem name the server process was launched for
	// (e.g. "bfs", "ext2"); it identifies which driver-settings block to
	// load.
	Flavor string

	// Connector performs the one-time FS-connect handshake and returns
	// the ports the server handed back: the first is reserved as the
	// notification port, the rest seed the forward PortPool (spec.md
	// §4.7). Exposed as an interface so tests can substitute an
	// in-process fake without a real connect handshake.
	Connector Connector

	// Settings is the parsed driver-settings document for this flavor.
	// FileSystem keeps it with the rest of Config but reads none of its
	// fields; defaults such as ioctlcfg.DefaultPortPoolSize are applied
	// only by ioctlcfg.LoadSettings.
	Settings *ioctlcfg.Settings

	// Notifications receives FS-wide notify-listener/notify-select-event/
	// send-notification traffic that isn't resolved to one particular
	// mounted volume.
	Notifications volume.NotificationSink

	Log logrus.FieldLogger
}

// Connector is the one-time handshake a FileSystem performs with the
// userspace server to obtain its notification port, forward ports, and
// the server's team id (needed for the reentrancy check in spec.md §4.3).
type Connector interface {
	Connect(ctx context.Context, flavor string) (ConnectResult, error)
}

// ConnectResult is what a successful FS-connect handshake yields.
type ConnectResult struct {
	NotificationPort port.Port
	ForwardPorts     []port.Port
	ServerTeamID     int32
}

// FileSystem is the per-flavor singleton described by spec.md §3/§4.7.
type FileSystem struct {
	id     uuid.UUID
	flavor string
	cfg    Config
	log    logrus.FieldLogger

	pool             *port.Pool
	notificationPort port.Port
	serverTeamID     int32

	selectSync *selectsync.Registry
	ioctls     *ioctlcfg.Registry

	mu      sync.RWMutex
	volumes map[gwops.VolumeID]*volume.Volume

	terminating chanFlag
	group       *errgroup.Group
}

// chanFlag is a sticky, observe-once-per-loop-iteration termination signal,
// the channel equivalent of a single bool set once and never cleared --
// grounded on spec.md §4.5's "terminating flag... observed at every loop
// head".
type chanFlag chan struct{}

func newChanFlag() chanFlag { return make(chanFlag) }

func (f chanFlag) set() { close(f) }

func (f chanFlag) isSet() bool {
	select {
	case <-f:
		return true
	default:
		return false
	}
}

// New constructs a FileSystem for one flavor; it is not yet connected to a
// server until Connect is called.
func New(cfg Config) *FileSystem {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	fs := &FileSystem{
		id:          uuid.New(),
		flavor:      cfg.Flavor,
		cfg:         cfg,
		log:         log.WithField("flavor", cfg.Flavor),
		selectSync:  &selectsync.Registry{},
		ioctls:      ioctlcfg.NewRegistry(),
		volumes:     make(map[gwops.VolumeID]*volume.Volume),
		terminating: newChanFlag(),
	}
	return fs
}

// ID is this FileSystem instance's unique identity, minted fresh every
// process lifetime -- exposed for callers' log correlation (the
// FileSystem's own log lines carry only the flavor), never sent over the
// wire.
func (fs *FileSystem) ID() uuid.UUID { return fs.id }

// Connect performs the one-time FS-connect handshake (spec.md §4.7): it
// obtains the notification port and forward PortPool from cfg.Connector,
// records the server's team id, and spawns the notification thread.
func (fs *FileSystem) Connect(ctx context.Context) error {
	if fs.cfg.Connector == nil {
		return errors.New("filesystem: Config.Connector is required")
	}

	result, err := fs.cfg.Connector.Connect(ctx, fs.flavor)
	if err != nil {
		return errors.Wrap(err, "filesystem: FS-connect handshake")
	}
	if len(result.ForwardPorts) == 0 {
		return errors.New("filesystem: FS-connect returned no forward ports")
	}

	fs.notificationPort = result.NotificationPort
	fs.serverTeamID = result.ServerTeamID
	fs.pool = port.NewPool(result.ForwardPorts)

	fs.group, ctx = errgroup.WithContext(context.Background())
	fs.group.Go(func() error {
		fs.runNotificationLoop(ctx)
		return nil
	})

	fs.log.Info("filesystem: connected")
	return nil
}

// Pool is the shared forward PortPool every mounted Volume of this flavor
// acquires ports from.
func (fs *FileSystem) Pool() *port.Pool { return fs.pool }

// IOCtls is the per-flavor IOCtl descriptor registry. New creates it
// holding only the framework-internal commands; neither New nor Connect
// loads driver-defined descriptors into it from Settings.
func (fs *FileSystem) IOCtls() *ioctlcfg.Registry { return fs.ioctls }

// SelectSync is this FileSystem's select-sync token registry (spec.md's
// Data Model section), shared by every volume of the flavor and validating
// server-initiated wake requests.
func (fs *FileSystem) SelectSync() *selectsync.Registry { return fs.selectSync }

// ServerTeamID is the userspace server's process/team id, as recorded from
// the handshake. Nothing in this module compares against it: the
// reentrancy case in spec.md §4.3 is detected from ctxkey.IsServerOriginated.
func (fs *FileSystem) ServerTeamID() int32 { return fs.serverTeamID }

// AddVolume registers a freshly mounted volume so the notification thread
// can route reverse-dispatch traffic to it. Called once per successful
// Volume.Mount.
func (fs *FileSystem) AddVolume(v *volume.Volume) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.volumes[v.ID()] = v
}

// RemoveVolume unregisters a volume at unmount. Per spec.md §9's cyclic
// ownership note, FileSystem is the strong owner of its Volumes: once the
// last one is removed, the caller may tear the FileSystem down.
func (fs *FileSystem) RemoveVolume(id gwops.VolumeID) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.volumes, id)
}

// VolumeCount reports how many volumes are currently mounted under this
// flavor, for the "destroyed when its last volume is unmounted" lifecycle
// rule in spec.md §3.
func (fs *FileSystem) VolumeCount() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.volumes)
}

func (fs *FileSystem) volumeByID(id gwops.VolumeID) (*volume.Volume, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	v, ok := fs.volumes[id]
	return v, ok
}

// Shutdown sets the terminating flag, joins the notification thread, and
// releases the forward PortPool -- mirroring spec.md §4.7's teardown:
// "sets the terminating flag, joins the thread, drains leftover
// notification traffic, and destroys the registries." The caller must
// have already unmounted every volume.
func (fs *FileSystem) Shutdown(ctx context.Context) error {
	if fs.VolumeCount() != 0 {
		return fmt.Errorf("filesystem: Shutdown called with %d volume(s) still mounted", fs.VolumeCount())
	}

	fs.terminating.set()
	if fs.pool != nil {
		fs.pool.Disconnect()
	}

	if fs.group == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- fs.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return errors.New("filesystem: notification thread did not exit in time")
	}
}
