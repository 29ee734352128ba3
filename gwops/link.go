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

type UnlinkRequest struct {
	Header OpHeader
	Name   string
}

type UnlinkResponse struct{}

type RenameRequest struct {
	Header   OpHeader
	OldName  string
	NewDir   OpHeader
	NewName  string
}

type RenameResponse struct{}

type CreateSymlinkRequest struct {
	Header OpHeader
	Name   string
	Target string
	Mode   uint32
}

type CreateSymlinkResponse struct {
	Entry NodeInfo
}

type ReadSymlinkRequest struct {
	Header OpHeader
	Size   int
}

type ReadSymlinkResponse struct {
	Target string
}
