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

package port

import (
	"context"

	"github.com/jacobsa/syncutil"
	"golang.org/x/sync/semaphore"

	"github.com/haiku/userlandfs/internal/portlog"
)

// Pool hands out Ports to forward-dispatch callers and takes them back.
// Once Disconnect is called, every Port still checked out is considered
// lost, every blocked and future Acquire returns (nil, false), and
// IsDisconnected latches true for the lifetime of the Pool -- there is no
// reconnect. This mirrors PortPool's sticky disconnected state in the
// system this package reimplements.
//
// The zero value is not usable; construct with NewPool.
type Pool struct {
	mu syncutil.InvariantMutex

	// sem holds one unit of weight per idle port. Acquire blocks on it
	// instead of a hand-rolled condition-variable wait queue; Disconnect
	// wakes every blocked Acquire by canceling disconnectCtx rather than
	// by handing out fake weight.
	sem *semaphore.Weighted

	disconnectCtx    context.Context
	disconnectCancel context.CancelFunc

	// GUARDED_BY(mu)
	idle []Port

	// GUARDED_BY(mu)
	disconnected bool

	// GUARDED_BY(mu)
	outstanding int
}

// NewPool returns an empty Pool seeded with the given ports.
func NewPool(ports []Port) *Pool {
	p := &Pool{
		idle: append([]Port(nil), ports...),
		sem:  semaphore.NewWeighted(int64(len(ports))),
	}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	p.disconnectCtx, p.disconnectCancel = context.WithCancel(context.Background())
	return p
}

// LOCKS_REQUIRED(p.mu)
func (p *Pool) checkInvariants() {
	if p.disconnected && len(p.idle) != 0 {
		panic("port: idle ports remain after disconnect")
	}
	if p.outstanding < 0 {
		panic("port: negative outstanding count")
	}
}

// Acquire blocks until a port is idle or the pool is disconnected,
// whichever happens first. It also returns early with (nil, false) if ctx
// is done. A successful Acquire must be paired with exactly one Release.
//
// LOCKS_EXCLUDED(p.mu)
func (p *Pool) Acquire(ctx context.Context) (Port, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Merge the caller's ctx with the pool's own disconnect signal, since
	// semaphore.Weighted.Acquire only wakes on its own ctx or a Release --
	// Disconnect needs a way to wake every blocked waiter without handing
	// out weight for ports that no longer exist.
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.disconnectCtx, cancel)
	defer stop()

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disconnected {
		// Acquired weight for a port that Disconnect already closed (or
		// never existed as idle): hand it back and report failure.
		p.sem.Release(1)
		return nil, false
	}

	n := len(p.idle) - 1
	pt := p.idle[n]
	p.idle = p.idle[:n]
	p.outstanding++
	portlog.Get().Printf("acquire: outstanding=%d idle=%d", p.outstanding, len(p.idle))
	return pt, true
}

// Release returns pt to the idle set. If the pool has since been
// disconnected, pt is closed instead of being reused, since no further
// forward dispatch will ever draw from this pool again.
//
// LOCKS_EXCLUDED(p.mu)
func (p *Pool) Release(pt Port) {
	p.mu.Lock()
	p.outstanding--
	if p.disconnected {
		p.mu.Unlock()
		pt.Close()
		return
	}
	p.idle = append(p.idle, pt)
	outstanding, idle := p.outstanding, len(p.idle)
	p.mu.Unlock()
	portlog.Get().Printf("release: outstanding=%d idle=%d", outstanding, idle)
	p.sem.Release(1)
}

// Disconnect marks the pool permanently disconnected, closes every
// currently idle port, and wakes every blocked Acquire so it returns
// (nil, false). Ports that are currently checked out are closed as they
// are Released rather than here, since the pool does not own them while
// they are outstanding.
//
// Disconnect is idempotent.
//
// LOCKS_EXCLUDED(p.mu)
func (p *Pool) Disconnect() {
	p.mu.Lock()
	if p.disconnected {
		p.mu.Unlock()
		return
	}
	p.disconnected = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	portlog.Get().Printf("disconnect: closing %d idle port(s)", len(idle))
	for _, pt := range idle {
		pt.Close()
	}
	p.disconnectCancel()
}

// IsDisconnected reports whether Disconnect has been called.
//
// LOCKS_EXCLUDED(p.mu)
func (p *Pool) IsDisconnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

// Outstanding returns the number of ports currently checked out. Exposed
// for tests and for diagnostics logging around shutdown.
//
// LOCKS_EXCLUDED(p.mu)
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}
