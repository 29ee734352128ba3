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

package userlandfs

import (
	"context"

	"github.com/pkg/errors"

	"github.com/haiku/userlandfs/filesystem"
	"github.com/haiku/userlandfs/volume"
)

// MountedVolume is the handle Mount returns: a struct representing the
// status of a mount operation, with a method that waits for unmounting --
// the direct analogue of mounted_file_system.go's MountedFileSystem, with
// one volume.Volume in place of one bazilfuse connection.
type MountedVolume struct {
	flavor string
	dir    string
	device string

	fs     *filesystem.FileSystem
	volume *volume.Volume

	// joinStatus is the value Join returns once joinStatusAvailable is
	// closed; not valid to read before then.
	joinStatus          error
	joinStatusAvailable chan struct{}
}

// Dir returns the directory this volume was mounted on.
func (mv *MountedVolume) Dir() string { return mv.dir }

// Device returns the device string this volume was mounted with.
func (mv *MountedVolume) Device() string { return mv.device }

// Volume exposes the underlying Volume, for callers that need to issue
// forward VFS operations directly rather than through a host hook vector.
func (mv *MountedVolume) Volume() *volume.Volume { return mv.volume }

// Join blocks until the volume has been unmounted via Unmount, returning
// whatever error the teardown produced; a server disconnect alone does not
// unblock it. May be called multiple times, and concurrently.
func (mv *MountedVolume) Join(ctx context.Context) error {
	select {
	case <-mv.joinStatusAvailable:
		return mv.joinStatus
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unmount sends the one-time unmount request, unregisters the volume from
// its flavor's FileSystem, and -- if this was the last volume mounted
// under that flavor -- shuts the FileSystem down (spec.md §3's "destroyed
// when its last volume is unmounted"). It unblocks every Join call,
// successful or not.
func Unmount(ctx context.Context, mv *MountedVolume) (err error) {
	logger := getLogger()
	logger.Printf("Unmount: flavor=%s mountPoint=%s", mv.flavor, mv.dir)

	defer func() {
		mv.joinStatus = err
		close(mv.joinStatusAvailable)
	}()

	err = mv.volume.Unmount(ctx)

	mv.fs.RemoveVolume(mv.volume.ID())
	if releaseErr := releaseFileSystem(ctx, mv.flavor); releaseErr != nil {
		if err == nil {
			err = releaseErr
		} else {
			err = errors.Wrap(err, releaseErr.Error())
		}
	}

	logger.Printf("Unmount: flavor=%s mountPoint=%s complete, err=%v", mv.flavor, mv.dir, err)
	return err
}
