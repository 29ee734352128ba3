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

	"github.com/haiku/userlandfs/internal/reqhandler"
	"github.com/haiku/userlandfs/internal/wire"
	"github.com/haiku/userlandfs/selectsync"
	"github.com/haiku/userlandfs/volume"
)

func recvReply(t *testing.T, p *pipePort) *wire.Decoder {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := p.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return d
}

func TestNotificationThreadRoutesVNodeOpToCorrectVolume(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	v := volume.New(5, volume.Config{
		Pool: fs.Pool(), Nested: reqhandler.NewKernelRequestHandler(noopCallbacks{}),
		Clock: timeutil.RealClock(), Host: noopHost{},
	})
	fs.AddVolume(v)
	defer fs.RemoveVolume(v.ID())

	a := wire.NewAllocator()
	a.Grow(12)
	a.PutUint32(0, uint32(v.ID()))
	a.PutUint64(4, 77) // vnid
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagGetVNodeRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if reply.Header().Tag != wire.TagGetVNodeReply {
		t.Fatalf("reply tag = %v, want TagGetVNodeReply", reply.Header().Tag)
	}
	if status := reply.Uint32(0); status != 0 {
		t.Errorf("status = %d, want 0 (GetVNode on a known volume should succeed)", status)
	}
}

func TestNotificationThreadRejectsUnknownVolume(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	a := wire.NewAllocator()
	a.Grow(12)
	a.PutUint32(0, 999) // no such volume mounted
	a.PutUint64(4, 1)
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagGetVNodeRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if status := reply.Uint32(0); status == 0 {
		t.Errorf("status = 0 for an unknown volume id, want a failure status")
	}
}

func TestNotifyListenerRejectsEmptyNameForEntryCreated(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	const opEntryCreated = 1
	a := wire.NewAllocator()
	a.Grow(40)
	a.PutUint32(0, 0) // volume-less: accept any
	a.PutUint32(4, opEntryCreated)
	a.PutUint32(8, 0) // device
	a.PutUint64(12, 1)
	a.PutUint64(20, 2)
	a.PutString(28, "") // Testable Property 8 / Scenario S5: empty name is rejected
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagNotifyListenerRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if reply.Header().Tag != wire.TagNotifyListenerReply {
		t.Fatalf("reply tag = %v, want TagNotifyListenerReply", reply.Header().Tag)
	}
	if status := reply.Uint32(0); status == 0 {
		t.Errorf("status = 0 for an empty-name entry-created notification, want bad-value")
	}
}

func TestNotifyListenerAcceptsNonEntryOpWithEmptyName(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	const opStatChanged = 4 // not one of the entry-naming ops
	a := wire.NewAllocator()
	a.Grow(40)
	a.PutUint32(0, 0)
	a.PutUint32(4, opStatChanged)
	a.PutUint32(8, 0)
	a.PutUint64(12, 1)
	a.PutUint64(20, 2)
	a.PutString(28, "")
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagNotifyListenerRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if status := reply.Uint32(0); status != 0 {
		t.Errorf("status = %d for a non-entry-naming op with an empty name, want success", status)
	}
}

func TestNotifySelectEventRejectsUnregisteredToken(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	var token [16]byte
	for i := range token {
		token[i] = byte(i + 1)
	}

	a := wire.NewAllocator()
	a.Grow(24)
	a.PutUint32(0, 0)
	a.PutRaw(4, token[:])
	a.PutUint32(20, 1) // event
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagNotifySelectEventRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if reply.Header().Tag != wire.TagNotifySelectEventReply {
		t.Fatalf("reply tag = %v, want TagNotifySelectEventReply", reply.Header().Tag)
	}
	if status := reply.Uint32(0); status == 0 {
		t.Errorf("status = 0 for an unregistered select-sync token, want bad-value")
	}
}

func TestNotifySelectEventAcceptsRegisteredToken(t *testing.T) {
	fs, notifyServer := newTestFileSystem(t)
	defer fs.Shutdown(context.Background())

	var token [16]byte
	for i := range token {
		token[i] = byte(i + 1)
	}
	waiter := fs.SelectSync().Register(selectsync.Token(token))
	defer fs.SelectSync().Deregister(selectsync.Token(token))

	a := wire.NewAllocator()
	a.Grow(24)
	a.PutUint32(0, 0)
	a.PutRaw(4, token[:])
	a.PutUint32(20, 1)
	if err := notifyServer.Send(context.Background(), a.Finish(wire.TagNotifySelectEventRequest)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	reply := recvReply(t, notifyServer)
	if status := reply.Uint32(0); status != 0 {
		t.Errorf("status = %d for a registered token, want success", status)
	}

	select {
	case <-waiter:
	case <-time.After(time.Second):
		t.Errorf("registered waiter was never signaled")
	}
}
