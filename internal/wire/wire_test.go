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

package wire_test

import (
	"testing"

	"github.com/haiku/userlandfs/internal/wire"
)

func TestAllocatorDecoderRoundTrip(t *testing.T) {
	a := wire.NewAllocator()

	const (
		offVnid = 0
		offName = 8
	)
	a.Grow(16) // offVnid uint64 + offName field descriptor
	a.PutUint64(offVnid, 0xdeadbeef)
	a.PutString(offName, "hello world")

	msg := a.Finish(wire.TagLookupRequest)

	d, err := wire.NewDecoder(msg)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	if got, want := d.Header().Tag, wire.TagLookupRequest; got != want {
		t.Errorf("Tag = %v, want %v", got, want)
	}
	if got, want := d.Uint64(offVnid), uint64(0xdeadbeef); got != want {
		t.Errorf("vnid = %#x, want %#x", got, want)
	}
	name, err := d.String(offName)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got, want := name, "hello world"; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
}

func TestDecoderRejectsShortMessage(t *testing.T) {
	_, err := wire.NewDecoder([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("expected an error for a too-short message")
	}
}

func TestDecoderRejectsSizeMismatch(t *testing.T) {
	a := wire.NewAllocator()
	msg := a.Finish(wire.TagMountRequest)
	// Corrupt the claimed size.
	msg = append(msg, 0, 0, 0, 0)

	_, err := wire.NewDecoder(msg)
	if err == nil {
		t.Fatalf("expected an error for a size/length mismatch")
	}
}

func TestAllocatorResetReusesBuffer(t *testing.T) {
	a := wire.NewAllocator()
	a.Grow(8)
	a.PutUint64(0, 1)
	_ = a.Finish(wire.TagReadRequest)

	a.Reset()
	a.Grow(8)
	a.PutUint64(0, 2)
	msg := a.Finish(wire.TagReadRequest)

	d, err := wire.NewDecoder(msg)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if got, want := d.Uint64(0), uint64(2); got != want {
		t.Errorf("after reset, value = %d, want %d", got, want)
	}
}
