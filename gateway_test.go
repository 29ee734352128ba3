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

package userlandfs_test

import (
	"context"
	"testing"
	"time"

	"github.com/haiku/userlandfs"
	"github.com/haiku/userlandfs/filesystem"
	"github.com/haiku/userlandfs/internal/port"
	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/vnode"
	"github.com/haiku/userlandfs/volume"
)

// pipePort is the same channel-backed fake used throughout this module's
// test suites.
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

type fakeConnector struct {
	result filesystem.ConnectResult
}

func (c fakeConnector) Connect(ctx context.Context, flavor string) (filesystem.ConnectResult, error) {
	return c.result, nil
}

type fakeHost struct{}

func (fakeHost) GetVNode(vnode.VNodeID) error                { return nil }
func (fakeHost) PutVNode(vnode.VNodeID) error                { return nil }
func (fakeHost) NewVNode(vnode.VNodeID, []byte) error        { return nil }
func (fakeHost) PublishVNode(vnode.VNodeID, []byte) error    { return nil }
func (fakeHost) RemoveVNode(vnode.VNodeID) error             { return nil }
func (fakeHost) UnremoveVNode(vnode.VNodeID) error           { return nil }
func (fakeHost) GetVNodeRemoved(vnode.VNodeID) (bool, error) { return false, nil }

// serveMountUnmount answers one MountRequest with a canned MountReply and
// any number of UnmountRequests with a bare success reply, standing in
// for a real userspace server's handling of the two ops gateway-level
// Mount/Unmount exercise.
func serveMountUnmount(t *testing.T, server *pipePort, stop <-chan struct{}) {
	t.Helper()
	go func() {
		for {
			select {
			case msg := <-server.in:
				d, err := wire.NewDecoder(msg)
				if err != nil {
					return
				}
				switch d.Header().Tag {
				case wire.TagMountRequest:
					a := wire.NewAllocator()
					a.Grow(20)
					a.PutUint64(0, 7) // root vnode
					a.PutBytes(8, []byte{0x01})
					a.PutUint32(16, 0) // capabilities
					server.out <- a.Finish(wire.TagMountReply)
				case wire.TagUnmountRequest:
					server.out <- wire.NewAllocator().Finish(wire.TagUnmountReply)
				}
			case <-stop:
				return
			}
		}
	}()
}

func newTestMountConfig(t *testing.T, flavor string) (userlandfs.MountConfig, func()) {
	t.Helper()

	notifyClient, _ := newPipePair()
	forwardClient, forwardServer := newPipePair()

	stop := make(chan struct{})
	serveMountUnmount(t, forwardServer, stop)

	cfg := userlandfs.MountConfig{
		Flavor: flavor,
		Host:   fakeHost{},
		Connector: fakeConnector{result: filesystem.ConnectResult{
			NotificationPort: notifyClient,
			ForwardPorts:     []port.Port{forwardClient},
			ServerTeamID:     123,
		}},
	}
	return cfg, func() { close(stop) }
}

func TestMountUnmountRoundTrip(t *testing.T) {
	cfg, cleanup := newTestMountConfig(t, "testfs-roundtrip")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mv, err := userlandfs.Mount(ctx, "/dev/fake", "/mnt/fake", "", 0, cfg)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if mv.Dir() != "/mnt/fake" {
		t.Errorf("Dir() = %q, want /mnt/fake", mv.Dir())
	}
	if mv.Device() != "/dev/fake" {
		t.Errorf("Device() = %q, want /dev/fake", mv.Device())
	}
	if mv.Volume().RootVNode() != vnode.VNodeID(7) {
		t.Errorf("RootVNode() = %v, want 7", mv.Volume().RootVNode())
	}

	joined := make(chan error, 1)
	go func() { joined <- mv.Join(context.Background()) }()

	select {
	case err := <-joined:
		t.Fatalf("Join returned before Unmount: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	if err := userlandfs.Unmount(ctx, mv); err != nil {
		t.Fatalf("Unmount: %v", err)
	}

	select {
	case err := <-joined:
		if err != nil {
			t.Errorf("Join() after Unmount = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Join did not return after Unmount")
	}
}

func TestMountSecondVolumeSharesFileSystem(t *testing.T) {
	flavor := "testfs-shared"

	notifyClient, _ := newPipePair()
	forward1Client, forward1Server := newPipePair()
	forward2Client, forward2Server := newPipePair()

	stop := make(chan struct{})
	defer close(stop)
	serveMountUnmount(t, forward1Server, stop)
	serveMountUnmount(t, forward2Server, stop)

	cfg := userlandfs.MountConfig{
		Flavor: flavor,
		Host:   fakeHost{},
		Connector: fakeConnector{result: filesystem.ConnectResult{
			NotificationPort: notifyClient,
			ForwardPorts:     []port.Port{forward1Client, forward2Client},
			ServerTeamID:     123,
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	mv1, err := userlandfs.Mount(ctx, "/dev/one", "/mnt/one", "", 0, cfg)
	if err != nil {
		t.Fatalf("Mount 1: %v", err)
	}
	mv2, err := userlandfs.Mount(ctx, "/dev/two", "/mnt/two", "", 0, cfg)
	if err != nil {
		t.Fatalf("Mount 2: %v", err)
	}
	if mv1.Volume().ID() == mv2.Volume().ID() {
		t.Fatalf("two volumes under the same flavor got the same VolumeID %v", mv1.Volume().ID())
	}

	if err := userlandfs.Unmount(ctx, mv1); err != nil {
		t.Fatalf("Unmount 1: %v", err)
	}
	if err := userlandfs.Unmount(ctx, mv2); err != nil {
		t.Fatalf("Unmount 2: %v", err)
	}
}

var _ volume.HostVFS = fakeHost{}
