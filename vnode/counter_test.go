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

package vnode_test

import (
	"testing"

	"github.com/haiku/userlandfs/vnode"
)

func TestDecrementLeavesRemainingReferencePending(t *testing.T) {
	c := vnode.New("vol0", nil)

	c.Increment(42)
	c.Increment(42)
	c.Decrement(42)

	if !c.Enabled() {
		t.Fatalf("counting should still be enabled after decrementing a tracked vnid")
	}

	var putCalls []vnode.VNodeID
	err := c.PutAllPendingVNodes(true, func(v vnode.VNodeID) {
		putCalls = append(putCalls, v)
	})
	if err != nil {
		t.Fatalf("PutAllPendingVNodes: %v", err)
	}
	if len(putCalls) != 1 || putCalls[0] != 42 {
		t.Errorf("expected a single pending put for vnid 42, got %v", putCalls)
	}
}

func TestDecrementOfUntrackedVNodeDisablesCounting(t *testing.T) {
	c := vnode.New("vol0", nil)

	c.Decrement(7)

	if c.Enabled() {
		t.Fatalf("expected counting to be disabled after an untracked decrement")
	}

	// Further increments/decrements are no-ops, not panics.
	c.Increment(7)
	c.Decrement(7)
}

func TestPutAllPendingVNodesRequiresDisconnect(t *testing.T) {
	c := vnode.New("vol0", nil)
	c.Increment(1)

	err := c.PutAllPendingVNodes(false, func(vnode.VNodeID) {
		t.Fatalf("put callback should not run while still connected")
	})
	if err != vnode.ErrStillConnected {
		t.Errorf("got %v, want ErrStillConnected", err)
	}
}

func TestPutAllPendingVNodesOnDisabledCounter(t *testing.T) {
	c := vnode.New("vol0", nil)
	c.Decrement(1) // disables counting

	err := c.PutAllPendingVNodes(true, func(vnode.VNodeID) {
		t.Fatalf("put callback should not run once counting is disabled")
	})
	if err != vnode.ErrCountingDisabled {
		t.Errorf("got %v, want ErrCountingDisabled", err)
	}
}

func TestPutAllPendingVNodesClearsMapAndDisables(t *testing.T) {
	c := vnode.New("vol0", nil)
	c.Increment(1)
	c.Increment(2)
	c.Increment(3)

	seen := map[vnode.VNodeID]bool{}
	err := c.PutAllPendingVNodes(true, func(v vnode.VNodeID) {
		seen[v] = true
	})
	if err != nil {
		t.Fatalf("PutAllPendingVNodes: %v", err)
	}
	for _, v := range []vnode.VNodeID{1, 2, 3} {
		if !seen[v] {
			t.Errorf("vnid %d was not put during teardown", v)
		}
	}
	if c.Enabled() {
		t.Errorf("counting should be disabled after PutAllPendingVNodes")
	}
}

// TestPutAllPendingVNodesPutsOnceForEachOutstandingReference guards against
// collapsing a vnid with more than one outstanding reference into a single
// put: the sum of put calls must equal the sum of counter values, not the
// number of distinct vnids (spec.md §4.6 step 5, Testable Property 2).
func TestPutAllPendingVNodesPutsOnceForEachOutstandingReference(t *testing.T) {
	c := vnode.New("vol0", nil)
	c.Increment(1)
	c.Increment(1)
	c.Increment(1)
	c.Increment(2)

	counts := map[vnode.VNodeID]int{}
	err := c.PutAllPendingVNodes(true, func(v vnode.VNodeID) {
		counts[v]++
	})
	if err != nil {
		t.Fatalf("PutAllPendingVNodes: %v", err)
	}
	if counts[1] != 3 {
		t.Errorf("vnid 1 had 3 outstanding references, got %d puts", counts[1])
	}
	if counts[2] != 1 {
		t.Errorf("vnid 2 had 1 outstanding reference, got %d puts", counts[2])
	}
}
