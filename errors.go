// Copyright 2015 Google Inc. All Rights Reserved.

package userlandfs

import "golang.org/x/sys/unix"

// Kernel-facing error values a FileSystem method (or the embedder's
// HostVFS) may return. These are the same syscall.Errno values any Go
// program already uses; named here so callers don't have to reach into
// golang.org/x/sys/unix directly for the handful this gateway's contract
// singles out.
const (
	EIO       = unix.EIO
	ENOENT    = unix.ENOENT
	ENOSYS    = unix.ENOSYS
	ENOTEMPTY = unix.ENOTEMPTY

	// ENOTCONN is returned by a forward operation with no disconnected-
	// fallback contract once Volume.Disconnect has been observed (spec.md
	// §4.4's fallback table; every op not in that table falls back to
	// this).
	ENOTCONN = unix.ENOTCONN

	// ETIMEDOUT is returned when a reentrant forward call -- one made from
	// a goroutine the embedder has marked as server-originated via
	// ctxkey.WithServerOriginated -- would otherwise deadlock waiting on a
	// port the server itself is blocked holding (spec.md §4.3).
	ETIMEDOUT = unix.ETIMEDOUT
)
