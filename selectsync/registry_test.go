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

package selectsync_test

import (
	"testing"
	"time"

	"github.com/haiku/userlandfs/selectsync"
)

func TestSignalWakesRegisteredWaiter(t *testing.T) {
	var r selectsync.Registry
	tok := selectsync.NewToken()

	ch := r.Register(tok)
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	r.Signal(tok)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("signal channel never closed")
	}

	if r.Len() != 0 {
		t.Errorf("token should be forgotten after Signal, Len = %d", r.Len())
	}
}

func TestDeregisterDecrementsRefcount(t *testing.T) {
	var r selectsync.Registry
	tok := selectsync.NewToken()

	r.Register(tok)
	r.Register(tok)
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (same token registered twice)", r.Len())
	}

	r.Deregister(tok)
	if r.Len() != 1 {
		t.Errorf("one Deregister should leave the token present, Len = %d", r.Len())
	}

	r.Deregister(tok)
	if r.Len() != 0 {
		t.Errorf("second Deregister should remove the token, Len = %d", r.Len())
	}
}

func TestSignalOnUnregisteredTokenIsNoop(t *testing.T) {
	var r selectsync.Registry
	r.Signal(selectsync.NewToken())
}
