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

// Package ioctlcfg owns the per-flavor IOCtl descriptor table and the
// driver-settings document loader. A FileSystem creates one Registry when
// it is created rather than per mount, holding the framework-internal
// commands; it does not call LoadSettings or fill the Registry from a
// settings document.
package ioctlcfg

import (
	"fmt"

	"github.com/haiku/userlandfs/gwops"
)

// Descriptor documents one driver-defined IOCtl command: its human-readable
// name, for logging, and whether it expects an in/out buffer.
type Descriptor struct {
	Name       string
	HasBuffer  bool
}

// Registry maps IOCtl commands to their descriptors. The framework-internal
// commands below gwops.IOCtlFrameworkCommandsEnd are always present and
// cannot be overridden.
type Registry struct {
	descriptors map[gwops.IOCtlCommand]Descriptor
}

// NewRegistry returns a Registry pre-populated with the framework-internal
// commands.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[gwops.IOCtlCommand]Descriptor)}
	r.descriptors[gwops.IOCtlPutAllPendingVNodes] = Descriptor{
		Name:      "PutAllPendingVNodes",
		HasBuffer: false,
	}
	return r
}

// Define registers a driver-defined command. cmd must be at or above
// gwops.IOCtlFrameworkCommandsEnd; an attempt to redefine a
// framework-reserved command or an already-defined one is an error.
func (r *Registry) Define(cmd gwops.IOCtlCommand, d Descriptor) error {
	if cmd < gwops.IOCtlFrameworkCommandsEnd {
		return fmt.Errorf("ioctlcfg: command %d is in the framework-reserved range", cmd)
	}
	if _, exists := r.descriptors[cmd]; exists {
		return fmt.Errorf("ioctlcfg: command %d already defined", cmd)
	}
	r.descriptors[cmd] = d
	return nil
}

// Lookup returns the descriptor registered for cmd, if any.
func (r *Registry) Lookup(cmd gwops.IOCtlCommand) (Descriptor, bool) {
	d, ok := r.descriptors[cmd]
	return d, ok
}
