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

// Package port models the bidirectional request/reply channel a gateway
// uses to talk to a single userspace filesystem server, and the pool of
// such channels a FileSystem keeps warm for concurrent forward dispatch.
package port

import (
	"context"

	"github.com/haiku/userlandfs/internal/wire"
)

// Port is a single bidirectional channel to the server. Transport is
// pluggable -- in production it is backed by the host's own message-port
// primitive; in tests it is backed by an in-memory pipe -- so Port itself
// only declares the shape forward dispatch and reverse dispatch need.
type Port interface {
	// Send writes a single message and returns once it has been handed to
	// the transport. It does not wait for a reply; callers that need one
	// read the same Port's Receive in a loop, matching replies to requests
	// by tag the way reqhandler does.
	Send(ctx context.Context, msg []byte) error

	// Receive blocks for the next message addressed to this port, or
	// returns ctx.Err() if ctx is done first.
	Receive(ctx context.Context) (*wire.Decoder, error)

	// Close releases the underlying transport. Safe to call more than
	// once.
	Close() error
}
