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

// Package vnode tracks, per volume, how many outstanding kernel references
// each vnode id has been handed out for, so that a disconnected volume can
// release every vnode the VFS never got a chance to put back.
package vnode

import (
	"fmt"

	"github.com/jacobsa/syncutil"
	"github.com/sirupsen/logrus"
)

// VNodeID identifies a vnode the way the embedding VFS does: an opaque
// 64-bit id scoped to one volume.
type VNodeID uint64

// Counter is the per-volume outstanding-reference map. The zero value is
// not usable; construct with New.
//
// Counting starts enabled and becomes permanently disabled either the first
// time an operation on it cannot be trusted to reflect reality -- a
// decrement of a vnid the counter never saw incremented -- or once
// PutAllPendingVNodes has released every pending reference. Once
// disabled, every further Increment/Decrement is a silent no-op and
// PutAllPendingVNodes reports ErrCountingDisabled, mirroring
// _IncrementVNodeCount/_DecrementVNodeCount in the system this package
// reimplements: once the map can no longer be trusted, the safest thing is
// to stop touching it rather than to guess.
type Counter struct {
	mu syncutil.InvariantMutex

	// GUARDED_BY(mu)
	counts map[VNodeID]int32

	// GUARDED_BY(mu)
	enabled bool

	log    logrus.FieldLogger
	volume string
}

// New returns a Counter with counting enabled. volume is used only for log
// fields, identifying which mounted volume a "that should never happen"
// warning came from.
func New(volume string, log logrus.FieldLogger) *Counter {
	if log == nil {
		log = logrus.StandardLogger()
	}

	c := &Counter{
		counts:  make(map[VNodeID]int32),
		enabled: true,
		log:     log,
		volume:  volume,
	}
	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

// LOCKS_REQUIRED(c.mu)
func (c *Counter) checkInvariants() {
	if !c.enabled && len(c.counts) != 0 {
		panic("vnode: counting disabled but map not empty")
	}
	for vnid, n := range c.counts {
		if n <= 0 {
			panic(fmt.Sprintf("vnode: non-positive count %d left in map for vnid %d", n, vnid))
		}
	}
}

// Enabled reports whether counting is still active for this volume.
//
// LOCKS_EXCLUDED(c.mu)
func (c *Counter) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Increment records one more outstanding reference to vnid. A no-op once
// counting has been disabled.
//
// LOCKS_EXCLUDED(c.mu)
func (c *Counter) Increment(vnid VNodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	c.counts[vnid]++
}

// Decrement records one fewer outstanding reference to vnid, removing it
// from the map entirely once it reaches zero.
//
// If vnid has no tracked count at all, this disables counting for the rest
// of the volume's lifetime and logs a warning, rather than going negative.
// This reproduces a known inconsistency in the system being modeled: the
// reverse new-vnode callback never increments (see the "R new-vnode" row of
// the counter rules), yet Volume.Create's forward path decrements the same
// vnid once the server replies. See DESIGN.md, Open Question (a), for why
// this is preserved as-is instead of patched.
//
// LOCKS_EXCLUDED(c.mu)
func (c *Counter) Decrement(vnid VNodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	n, ok := c.counts[vnid]
	if !ok {
		c.log.WithFields(logrus.Fields{
			"volume": c.volume,
			"vnid":   uint64(vnid),
		}).Warn("vnode: decrement of untracked vnid, disabling vnode counting")
		c.enabled = false
		return
	}

	n--
	if n == 0 {
		delete(c.counts, vnid)
	} else {
		c.counts[vnid] = n
	}
}

// PutAllPendingVNodes releases every vnode this counter still has an
// outstanding reference for, via put. It is only valid once the volume's
// port pool has observed a disconnect -- calling it earlier returns
// ErrStillConnected, and calling it once counting has already been disabled
// returns ErrCountingDisabled, exactly as the two-stage guard in the system
// this reimplements rejects the corresponding IOCtl.
//
// put is called once per outstanding reference -- count times for a vnid
// whose count is count, not once per vnid -- with the lock released, so it
// may itself call back into code that does not expect to be holding c.mu.
//
// LOCKS_EXCLUDED(c.mu)
func (c *Counter) PutAllPendingVNodes(disconnected bool, put func(VNodeID)) error {
	if !disconnected {
		return ErrStillConnected
	}

	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return ErrCountingDisabled
	}

	pending := make(map[VNodeID]int32, len(c.counts))
	for vnid, n := range c.counts {
		pending[vnid] = n
	}
	c.counts = make(map[VNodeID]int32)
	c.enabled = false
	c.mu.Unlock()

	// One put per outstanding reference, not one per vnid: spec.md §4.6
	// step 5 calls for exactly `count` put-vnode callbacks per entry so the
	// total matches the pre-call sum of counter values (Testable Property
	// 2), balancing however many reverse get-vnode calls left it at n.
	for vnid, n := range pending {
		for i := int32(0); i < n; i++ {
			put(vnid)
		}
	}
	return nil
}
