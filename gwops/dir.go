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

// DirCookie is the opaque handle OpenDir hands back, rewound by
// RewindDirRequest and consumed by ReadDirRequest.
type DirCookie uint64

type CreateDirRequest struct {
	Header OpHeader
	Name   string
	Mode   uint32
}

type CreateDirResponse struct {
	Entry NodeInfo
}

type RemoveDirRequest struct {
	Header OpHeader
	Name   string
}

type RemoveDirResponse struct{}

type OpenDirRequest struct {
	Header OpHeader
}

type OpenDirResponse struct {
	Cookie DirCookie
}

// Dirent is one entry of a ReadDirResponse, named the way the teacher's
// fuseutil.Dirent is. It carries only the entry's name and mode; there is no
// offset or vnode id field.
type Dirent struct {
	Name string
	Mode uint32
}

type ReadDirRequest struct {
	Header OpHeader
	Cookie DirCookie
	Count  int
}

type ReadDirResponse struct {
	Entries []Dirent
	Done    bool
}

type RewindDirRequest struct {
	Header OpHeader
	Cookie DirCookie
}

type RewindDirResponse struct{}
