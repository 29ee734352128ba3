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

// Package reqhandler dispatches messages arriving on a port to the code
// that knows how to answer them. The system this package is modeled on
// dispatches through a hierarchy of C++ RequestHandler subclasses, one per
// message shape; Go has no concise equivalent of that kind of open virtual
// dispatch, so this package uses a tag-keyed handler table instead, the
// same restructuring fuseutil.FileSystem's type-switch dispatch suggested
// (there, dispatch is on a Go type; here it is on the wire.Tag that came
// off the port, since the payload hasn't been decoded into a Go type yet).
package reqhandler

import (
	"context"
	"fmt"

	"github.com/jacobsa/reqtrace"

	"github.com/haiku/userlandfs/internal/wire"
)

// Handler answers one request shape: given its decoded payload, produce
// the reply bytes to send back (already tagged via wire.Allocator.Finish),
// or an error to propagate instead.
type Handler interface {
	Handle(ctx context.Context, req *wire.Decoder) ([]byte, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req *wire.Decoder) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, req *wire.Decoder) ([]byte, error) {
	return f(ctx, req)
}

// Table dispatches by tag. The zero value is ready to use.
type Table struct {
	handlers map[wire.Tag]Handler
}

// Register associates tag with h. Registering the same tag twice panics --
// a dispatch table configuration error, never a runtime condition.
func (t *Table) Register(tag wire.Tag, h Handler) {
	if t.handlers == nil {
		t.handlers = make(map[wire.Tag]Handler)
	}
	if _, exists := t.handlers[tag]; exists {
		panic(fmt.Sprintf("reqhandler: tag %v already registered", tag))
	}
	t.handlers[tag] = h
}

// Dispatch looks up req's tag and invokes its handler, tracing the call
// under reqtrace the way fuseops/common_op.go traces each FUSE op.
func (t *Table) Dispatch(ctx context.Context, req *wire.Decoder) ([]byte, error) {
	tag := req.Header().Tag
	h, ok := t.handlers[tag]
	if !ok {
		return nil, fmt.Errorf("reqhandler: no handler registered for tag %v", tag)
	}

	ctx, report := reqtrace.StartSpan(ctx, tag.String())
	reply, err := h.Handle(ctx, req)
	report(err)
	return reply, err
}
