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

// Package ctxkey marks a context.Context as originating from the
// userspace server's own team (spec.md §4.3's "thread belonging to the
// userspace server team"). Go has no kernel-level thread/team identity to
// inspect, so the embedder sets this explicitly before calling back into
// the gateway from server-owned code -- e.g. from within a reverse-dispatch
// handler invoked by the notification thread, or any other goroutine it
// knows is running on behalf of the server process.
package ctxkey

import "context"

type serverOriginatedKey struct{}

// WithServerOriginated returns a copy of ctx marked as server-originated.
func WithServerOriginated(ctx context.Context) context.Context {
	return context.WithValue(ctx, serverOriginatedKey{}, true)
}

// IsServerOriginated reports whether ctx (or one of its ancestors) was
// marked by WithServerOriginated.
func IsServerOriginated(ctx context.Context) bool {
	v, _ := ctx.Value(serverOriginatedKey{}).(bool)
	return v
}
