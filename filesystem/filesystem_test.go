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

package filesystem_test

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/haiku/userlandfs/filesystem"
	"github.com/haiku/userlandfs/gwops"
	"github.com/haiku/userlandfs/internal/port"
	"github.com/haiku/userlandfs/internal/reqhandler"
	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/vnode"
	"github.com/haiku/userlandfs/volume"
)

// pipePort is the same channel-backed fake used by volume_test.go, kept
// local to this package since both are internal test helpers with no
// shared exported home.
type pipePort struct {
	out chan []byte
	in  chan []byte
}

func newPipePair() (a, b *pipePort) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	a = &pipePort{out: ab, in: ba}
	b = &pipePort{out: ba, in: ab}
	return
}

func (p *pipePort) Send(ctx context.Context, msg []byte) error {
	p.out <- msg
	return nil
}

func (p *pipePort) Receive(ctx context.Context) (*wire.Decoder, error) {
	select {
	case msg := <-p.in:
		return wire.NewDecoder(msg)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipePort) Close() error { return nil }

// fakeConnector hands back a fixed, pre-built set of ports instead of
// performing a real FS-connect handshake.
type fakeConnector struct {
	result filesystem.ConnectResult
	err    error
}

func (c fakeConnector) Connect(ctx context.Context, flavor string) (filesystem.ConnectResult, error) {
	return c.result, c.err
}

func newTestFileSystem(t *testing.T) (fs *filesystem.FileSystem, notifyServer *pipePort) {
	t.Helper()

	notifyClient, notifyServer := newPipePair()
	forwardClient, _ := newPipePair()

	fs = filesystem.New(filesystem.Config{
		Flavor: "testfs",
		Connector: fakeConnector{result: filesystem.ConnectResult{
			NotificationPort: notifyClient,
			ForwardPorts:     []port.Port{forwardClient},
			ServerTeamID:     99,
		}},
	})

	if err := fs.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return fs, notifyServer
}

func TestConnectPopulatesPoolAndServerTeamID(t *testing.T) {
	fs, _ := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	if fs.ServerTeamID() != 99 {
		t.Errorf("ServerTeamID() = %d, want 99", fs.ServerTeamID())
	}
	if fs.Pool() == nil {
		t.Fatalf("Pool() = nil after Connect")
	}
}

func TestConnectRejectsEmptyForwardPorts(t *testing.T) {
	fs := filesystem.New(filesystem.Config{
		Flavor: "testfs",
		Connector: fakeConnector{result: filesystem.ConnectResult{
			NotificationPort: &pipePort{out: make(chan []byte, 1), in: make(chan []byte, 1)},
		}},
	})
	if err := fs.Connect(context.Background()); err == nil {
		t.Fatalf("Connect with no forward ports succeeded, want error")
	}
}

func TestShutdownRefusesWithVolumesStillMounted(t *testing.T) {
	fs, _ := newTestFileSystem(t)

	v := volume.New(1, volume.Config{
		Pool:   fs.Pool(),
		Nested: reqhandler.NewKernelRequestHandler(noopCallbacks{}),
		Clock:  timeutil.RealClock(),
		Host:   noopHost{},
	})
	fs.AddVolume(v)

	if err := fs.Shutdown(context.Background()); err == nil {
		t.Fatalf("Shutdown with a volume still mounted succeeded, want error")
	}

	fs.RemoveVolume(v.ID())
	if fs.VolumeCount() != 0 {
		t.Errorf("VolumeCount() = %d after RemoveVolume, want 0", fs.VolumeCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := fs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown after unmounting last volume: %v", err)
	}
}

func TestAddVolumeRemoveVolumeBookkeeping(t *testing.T) {
	fs, _ := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	v1 := volume.New(1, volume.Config{
		Pool: fs.Pool(), Nested: reqhandler.NewKernelRequestHandler(noopCallbacks{}),
		Clock: timeutil.RealClock(), Host: noopHost{},
	})
	v2 := volume.New(2, volume.Config{
		Pool: fs.Pool(), Nested: reqhandler.NewKernelRequestHandler(noopCallbacks{}),
		Clock: timeutil.RealClock(), Host: noopHost{},
	})

	fs.AddVolume(v1)
	fs.AddVolume(v2)
	if fs.VolumeCount() != 2 {
		t.Fatalf("VolumeCount() = %d, want 2", fs.VolumeCount())
	}

	fs.RemoveVolume(gwops.VolumeID(1))
	if fs.VolumeCount() != 1 {
		t.Errorf("VolumeCount() = %d after removing one, want 1", fs.VolumeCount())
	}
	fs.RemoveVolume(gwops.VolumeID(2))
}

// noopHost and noopCallbacks satisfy volume.HostVFS and reqhandler.Callbacks
// respectively, answering every call with success. Nothing in this file's
// tests drives a forward or nested-reverse call through either; they exist
// only so volume.New has something to embed.
type noopHost struct{}

func (noopHost) GetVNode(vnode.VNodeID) error                { return nil }
func (noopHost) PutVNode(vnode.VNodeID) error                { return nil }
func (noopHost) NewVNode(vnode.VNodeID, []byte) error        { return nil }
func (noopHost) PublishVNode(vnode.VNodeID, []byte) error    { return nil }
func (noopHost) RemoveVNode(vnode.VNodeID) error              { return nil }
func (noopHost) UnremoveVNode(vnode.VNodeID) error             { return nil }
func (noopHost) GetVNodeRemoved(vnode.VNodeID) (bool, error)   { return false, nil }

type noopCallbacks struct{}

func (noopCallbacks) GetVNode(context.Context, vnode.VNodeID) error             { return nil }
func (noopCallbacks) PutVNode(context.Context, vnode.VNodeID) error             { return nil }
func (noopCallbacks) NewVNode(context.Context, vnode.VNodeID, []byte) error     { return nil }
func (noopCallbacks) PublishVNode(context.Context, vnode.VNodeID, []byte) error { return nil }
func (noopCallbacks) RemoveVNode(context.Context, vnode.VNodeID) error          { return nil }
func (noopCallbacks) UnremoveVNode(context.Context, vnode.VNodeID) error        { return nil }
func (noopCallbacks) GetVNodeRemoved(context.Context, vnode.VNodeID) (bool, error) {
	return false, nil
}
func (noopCallbacks) NotifyListener(context.Context, *wire.Decoder) error    { return nil }
func (noopCallbacks) NotifySelectEvent(context.Context, *wire.Decoder) error { return nil }
func (noopCallbacks) SendNotification(context.Context, *wire.Decoder) error  { return nil }
