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

package ioctlcfg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haiku/userlandfs/ioctlcfg"
)

func writeSettings(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadSettingsAppliesDefaults(t *testing.T) {
	path := writeSettings(t, "server_path: /bin/myfs-server\n")

	s, err := ioctlcfg.LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.ReentrantTimeoutSeconds != ioctlcfg.DefaultReentrantTimeoutSeconds {
		t.Errorf("ReentrantTimeoutSeconds = %d, want default %d", s.ReentrantTimeoutSeconds, ioctlcfg.DefaultReentrantTimeoutSeconds)
	}
	if s.PortPoolSize != ioctlcfg.DefaultPortPoolSize {
		t.Errorf("PortPoolSize = %d, want default %d", s.PortPoolSize, ioctlcfg.DefaultPortPoolSize)
	}
}

func TestLoadSettingsRequiresServerPath(t *testing.T) {
	path := writeSettings(t, "port_pool_size: 8\n")

	if _, err := ioctlcfg.LoadSettings(path); err == nil {
		t.Fatalf("expected an error for a settings file missing server_path")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if _, err := ioctlcfg.LoadSettings("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected an error for a missing settings file")
	}
}

func TestRegistryRejectsFrameworkRangeOverride(t *testing.T) {
	r := ioctlcfg.NewRegistry()
	err := r.Define(1, ioctlcfg.Descriptor{Name: "bogus"})
	if err == nil {
		t.Fatalf("expected an error defining a command in the framework-reserved range")
	}
}

func TestRegistryDefineAndLookup(t *testing.T) {
	r := ioctlcfg.NewRegistry()
	const cmd = 1001
	if err := r.Define(cmd, ioctlcfg.Descriptor{Name: "FlushQueryIndex", HasBuffer: true}); err != nil {
		t.Fatalf("Define: %v", err)
	}

	d, ok := r.Lookup(cmd)
	if !ok || d.Name != "FlushQueryIndex" {
		t.Errorf("Lookup(%d) = %+v, %v", cmd, d, ok)
	}
}
