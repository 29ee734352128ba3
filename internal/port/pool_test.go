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

package port_test

import (
	"context"
	"testing"
	"time"

	"github.com/haiku/userlandfs/internal/port"
	"github.com/haiku/userlandfs/internal/wire"
)

type fakePort struct {
	closed bool
}

func (p *fakePort) Send(ctx context.Context, msg []byte) error { return nil }
func (p *fakePort) Receive(ctx context.Context) (*wire.Decoder, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	a, b := &fakePort{}, &fakePort{}
	pool := port.NewPool([]port.Port{a, b})

	got, ok := pool.Acquire(context.Background())
	if !ok || got == nil {
		t.Fatalf("Acquire failed")
	}
	if pool.Outstanding() != 1 {
		t.Errorf("Outstanding = %d, want 1", pool.Outstanding())
	}

	pool.Release(got)
	if pool.Outstanding() != 0 {
		t.Errorf("Outstanding = %d, want 0", pool.Outstanding())
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	a := &fakePort{}
	pool := port.NewPool([]port.Port{a})

	got, ok := pool.Acquire(context.Background())
	if !ok {
		t.Fatalf("first Acquire failed")
	}

	done := make(chan port.Port)
	go func() {
		p, ok := pool.Acquire(context.Background())
		if !ok {
			t.Error("second Acquire should have succeeded after release")
		}
		done <- p
	}()

	select {
	case <-done:
		t.Fatalf("second Acquire should have blocked")
	case <-time.After(20 * time.Millisecond):
	}

	pool.Release(got)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("second Acquire never unblocked after Release")
	}
}

func TestDisconnectWakesBlockedAcquire(t *testing.T) {
	pool := port.NewPool(nil)

	done := make(chan bool)
	go func() {
		_, ok := pool.Acquire(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Disconnect()

	select {
	case ok := <-done:
		if ok {
			t.Errorf("Acquire should report failure after Disconnect")
		}
	case <-time.After(time.Second):
		t.Fatalf("Acquire never woke up after Disconnect")
	}

	if !pool.IsDisconnected() {
		t.Errorf("IsDisconnected should be true")
	}
}

func TestDisconnectClosesIdlePorts(t *testing.T) {
	a, b := &fakePort{}, &fakePort{}
	pool := port.NewPool([]port.Port{a, b})

	pool.Disconnect()

	if !a.closed || !b.closed {
		t.Errorf("idle ports should be closed on Disconnect")
	}
}

func TestReleaseAfterDisconnectClosesPort(t *testing.T) {
	a := &fakePort{}
	pool := port.NewPool([]port.Port{a})

	got, ok := pool.Acquire(context.Background())
	if !ok {
		t.Fatalf("Acquire failed")
	}

	pool.Disconnect()
	pool.Release(got)

	if !a.closed {
		t.Errorf("port checked out before Disconnect should be closed on Release")
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	pool := port.NewPool(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := pool.Acquire(ctx)
	if ok {
		t.Errorf("Acquire should fail once context is done")
	}
}
