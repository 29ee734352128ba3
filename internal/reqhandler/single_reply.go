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

package reqhandler

import (
	"context"
	"fmt"

	"github.com/haiku/userlandfs/internal/wire"
)

// Receiver is the subset of port.Port a SingleReplyRequestHandler needs;
// declared locally instead of importing internal/port to avoid an import
// cycle (internal/port has no need to know about reqhandler).
type Receiver interface {
	Receive(ctx context.Context) (*wire.Decoder, error)
	Send(ctx context.Context, msg []byte) error
}

// SingleReplyRequestHandler drives one side of a forward request/reply
// exchange: it waits for expectedTag, but while waiting it must keep
// answering any server-originated callback (get_vnode, notify_listener,
// ...) that arrives on the same port first -- the reverse dispatch the
// server performs synchronously inside a single request/reply round trip.
// Those nested messages are handed to nested for an answer, which is sent
// back over the same port before the wait resumes.
//
// This reproduces the role _SendRequest and KernelRequestHandler play
// together in the system this package models: _SendRequest blocks for one
// specific reply tag while reflexively servicing any kernel callback that
// arrives first.
type SingleReplyRequestHandler struct {
	nested *Table
}

// NewSingleReplyRequestHandler builds a handler that answers nested
// reverse-dispatch calls using nested.
func NewSingleReplyRequestHandler(nested *Table) *SingleReplyRequestHandler {
	return &SingleReplyRequestHandler{nested: nested}
}

// Await blocks on r until a message tagged expectedTag arrives, answering
// any other message via h.nested in the meantime. It returns
// ctx.Err() if ctx is done first.
func (h *SingleReplyRequestHandler) Await(ctx context.Context, r Receiver, expectedTag wire.Tag) (*wire.Decoder, error) {
	for {
		msg, err := r.Receive(ctx)
		if err != nil {
			return nil, err
		}

		if msg.Header().Tag == expectedTag {
			return msg, nil
		}

		reply, err := h.nested.Dispatch(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("reqhandler: nested dispatch while awaiting %v: %w", expectedTag, err)
		}
		if reply != nil {
			if err := r.Send(ctx, reply); err != nil {
				return nil, fmt.Errorf("reqhandler: sending nested reply while awaiting %v: %w", expectedTag, err)
			}
		}
	}
}
