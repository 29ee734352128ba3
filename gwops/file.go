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

// FileCookie is the opaque handle a server hands back from Create/Open and
// expects on every subsequent Read/Write/Close/FreeCookie for that file
// handle.
type FileCookie uint64

type CreateRequest struct {
	Header    OpHeader
	Name      string
	OpenMode  int32
	Mode      uint32
}

type CreateResponse struct {
	Entry  NodeInfo
	Cookie FileCookie
}

type OpenRequest struct {
	Header   OpHeader
	OpenMode int32
}

type OpenResponse struct {
	Cookie FileCookie
}

type CloseRequest struct {
	Header OpHeader
	Cookie FileCookie
}

type CloseResponse struct{}

type FreeCookieRequest struct {
	Header OpHeader
	Cookie FileCookie
}

type FreeCookieResponse struct{}

type ReadRequest struct {
	Header OpHeader
	Cookie FileCookie
	Offset int64
	Size   int
}

type ReadResponse struct {
	Data []byte
}

type WriteRequest struct {
	Header OpHeader
	Cookie FileCookie
	Offset int64
	Data   []byte
}

type WriteResponse struct {
	Written int
}
