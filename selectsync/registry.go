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

// Package selectsync tracks the opaque tokens a select() caller registers
// with a volume and that the server later signals via a reverse
// NotifySelectEvent message. There is no teacher analogue for this --
// jacobsa/fuse has no select() support -- so its shape follows
// vnode.Counter's map+lock idiom for consistency with the rest of this
// codebase.
package selectsync

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies one registered select-sync waiter.
type Token uuid.UUID

// NewToken mints a fresh, globally unique token.
func NewToken() Token {
	return Token(uuid.New())
}

func (t Token) Bytes() [16]byte {
	return [16]byte(t)
}

// entry is one registration: how many times it has been registered (a
// single token may be registered for more than one event) and the channel
// to signal when the server notifies it.
type entry struct {
	refs   int
	signal chan struct{}
}

// Registry is a table of outstanding select-sync registrations; a
// filesystem.FileSystem keeps one, shared by all of its volumes.
// The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	entries map[Token]*entry
}

// Register records tok as awaiting a signal and returns a channel that is
// closed the first time Signal(tok) is called after this registration.
func (r *Registry) Register(tok Token) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[Token]*entry)
	}
	e, ok := r.entries[tok]
	if !ok {
		e = &entry{signal: make(chan struct{})}
		r.entries[tok] = e
	}
	e.refs++
	return e.signal
}

// Deregister removes one registration for tok, matching one prior
// Register call. The token is forgotten once its reference count reaches
// zero.
func (r *Registry) Deregister(tok Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[tok]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, tok)
	}
}

// Signal wakes every waiter registered for tok, then forgets it -- a
// select-sync token is one-shot, matching spec.md's "opaque token" model:
// once signaled, the caller must re-register to wait again. It reports
// whether tok was actually registered, so a caller validating a
// server-initiated wake request (spec.md §4.5) can reply bad-value for a
// stale or unknown token instead of silently no-opping.
func (r *Registry) Signal(tok Token) bool {
	r.mu.Lock()
	e, ok := r.entries[tok]
	if ok {
		delete(r.entries, tok)
	}
	r.mu.Unlock()

	if ok {
		close(e.signal)
	}
	return ok
}

// Len reports how many distinct tokens are currently registered. Exposed
// for tests and diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
