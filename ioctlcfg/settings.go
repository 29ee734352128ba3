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

package ioctlcfg

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Settings is the driver-settings document for one filesystem flavor,
// the Go-native replacement for the old R5 Settings.cpp's flat key/value
// file.
type Settings struct {
	// ServerPath names the userspace server executable for this flavor.
	// Nothing in this module launches it; a FileSystem reaches its server
	// only through its Connector.
	ServerPath string `yaml:"server_path"`

	// ReentrantTimeoutSeconds is the document's deadline for a reply to a
	// server-team thread (spec.md §4.3). volume.Volume does not read it;
	// it always applies its own fixed 10-second reentrantTimeout.
	ReentrantTimeoutSeconds int `yaml:"reentrant_timeout_seconds"`

	// PortPoolSize is the document's forward port count. FileSystem does
	// not read it; its pool holds whatever ports the Connector returns.
	PortPoolSize int `yaml:"port_pool_size"`

	// Parameters is a mount parameter string for the server. Mount does not
	// read it; gwops.MountRequest.Parameters carries the parameters string
	// passed to Mount.
	Parameters string `yaml:"parameters"`
}

// DefaultReentrantTimeoutSeconds matches the 10-second deadline spec.md
// §4.3 specifies for server-team threads calling back into the gateway.
const DefaultReentrantTimeoutSeconds = 10

// DefaultPortPoolSize is used when a settings document omits
// port_pool_size.
const DefaultPortPoolSize = 4

// LoadSettings reads and parses a driver-settings document from path.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ioctlcfg: reading settings file %q", path)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "ioctlcfg: parsing settings file %q", path)
	}

	if s.ReentrantTimeoutSeconds == 0 {
		s.ReentrantTimeoutSeconds = DefaultReentrantTimeoutSeconds
	}
	if s.PortPoolSize == 0 {
		s.PortPoolSize = DefaultPortPoolSize
	}
	if s.ServerPath == "" {
		return nil, errors.Errorf("ioctlcfg: settings file %q missing server_path", path)
	}

	return &s, nil
}
