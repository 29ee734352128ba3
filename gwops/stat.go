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

package gwops

import "time"

// LookupRequest resolves name within a directory vnode.
type LookupRequest struct {
	Header OpHeader
	Name   string
}

type LookupResponse struct {
	Entry NodeInfo
}

type GetVNodeTypeRequest struct {
	Header OpHeader
}

type GetVNodeTypeResponse struct {
	Mode uint32
}

type ReadStatRequest struct {
	Header OpHeader
}

// Stat is the attribute set every ReadStat/WriteStat exchange carries,
// shaped like the POSIX stat struct the original forwards verbatim.
type Stat struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  uint64
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
	Nlink uint32
}

type ReadStatResponse struct {
	Stat Stat
}

// WriteStatMask selects which Stat fields WriteStatRequest should apply;
// unselected fields are left untouched on the server.
type WriteStatMask uint32

const (
	WriteStatMode WriteStatMask = 1 << iota
	WriteStatUID
	WriteStatGID
	WriteStatSize
	WriteStatAtime
	WriteStatMtime
)

type WriteStatRequest struct {
	Header OpHeader
	Stat   Stat
	Mask   WriteStatMask
}

type WriteStatResponse struct{}
