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

// Package wire implements the fixed-layout request/reply encoding exchanged
// over a port: a small header (tag + size) followed by a tag-specific
// payload, with string and blob fields stored out of line at 4-byte
// alignment. It plays the role the C++ RequestAllocator/RequestDecoder pair
// plays in the system this module reimplements, and borrows its alignment
// discipline from internal/buffer/out_message.go in the teacher this was
// adapted from.
package wire

// Tag identifies the shape of a request or reply payload. Forward request
// tags and their paired reply tags are both represented here; reverse
// (server-originated) request tags are interleaved with them since both
// kinds of message can arrive on the same port.
type Tag uint32

// Forward request/reply tags. Every VFS hook gets a request tag and a reply
// tag; names follow the hook they implement.
const (
	TagUnknown Tag = iota

	TagMountRequest
	TagMountReply
	TagUnmountRequest
	TagUnmountReply
	TagReadFSInfoRequest
	TagReadFSInfoReply

	TagLookupRequest
	TagLookupReply
	TagGetVNodeTypeRequest
	TagGetVNodeTypeReply
	TagReadStatRequest
	TagReadStatReply
	TagWriteStatRequest
	TagWriteStatReply

	TagCreateRequest
	TagCreateReply
	TagOpenRequest
	TagOpenReply
	TagCloseRequest
	TagCloseReply
	TagFreeCookieRequest
	TagFreeCookieReply
	TagReadRequest
	TagReadReply
	TagWriteRequest
	TagWriteReply

	TagCreateDirRequest
	TagCreateDirReply
	TagRemoveDirRequest
	TagRemoveDirReply
	TagOpenDirRequest
	TagOpenDirReply
	TagReadDirRequest
	TagReadDirReply
	TagRewindDirRequest
	TagRewindDirReply

	TagUnlinkRequest
	TagUnlinkReply
	TagRenameRequest
	TagRenameReply
	TagCreateSymlinkRequest
	TagCreateSymlinkReply
	TagReadSymlinkRequest
	TagReadSymlinkReply

	TagIOCtlRequest
	TagIOCtlReply
	TagSetFlagsRequest
	TagSetFlagsReply
	TagSelectRequest
	TagSelectReply
	TagDeselectRequest
	TagDeselectReply

	TagReceiptAckRequest

	// Reverse (server-originated) tags: the server issues these as nested
	// requests while a forward request is outstanding on the same port.
	TagGetVNodeRequest
	TagGetVNodeReply
	TagPutVNodeRequest
	TagPutVNodeReply
	TagNewVNodeRequest
	TagNewVNodeReply
	TagPublishVNodeRequest
	TagPublishVNodeReply
	TagRemoveVNodeRequest
	TagRemoveVNodeReply
	TagUnremoveVNodeRequest
	TagUnremoveVNodeReply
	TagGetVNodeRemovedRequest
	TagGetVNodeRemovedReply

	TagNotifyListenerRequest
	TagNotifyListenerReply
	TagNotifySelectEventRequest
	TagNotifySelectEventReply
	TagSendNotificationRequest
	TagSendNotificationReply
)

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "TagUnknown"
}

var tagNames = map[Tag]string{
	TagMountRequest:             "MountRequest",
	TagMountReply:               "MountReply",
	TagUnmountRequest:           "UnmountRequest",
	TagUnmountReply:             "UnmountReply",
	TagReadFSInfoRequest:        "ReadFSInfoRequest",
	TagReadFSInfoReply:          "ReadFSInfoReply",
	TagLookupRequest:            "LookupRequest",
	TagLookupReply:              "LookupReply",
	TagGetVNodeTypeRequest:      "GetVNodeTypeRequest",
	TagGetVNodeTypeReply:        "GetVNodeTypeReply",
	TagReadStatRequest:          "ReadStatRequest",
	TagReadStatReply:            "ReadStatReply",
	TagWriteStatRequest:         "WriteStatRequest",
	TagWriteStatReply:           "WriteStatReply",
	TagCreateRequest:            "CreateRequest",
	TagCreateReply:              "CreateReply",
	TagOpenRequest:              "OpenRequest",
	TagOpenReply:                "OpenReply",
	TagCloseRequest:             "CloseRequest",
	TagCloseReply:               "CloseReply",
	TagFreeCookieRequest:        "FreeCookieRequest",
	TagFreeCookieReply:          "FreeCookieReply",
	TagReadRequest:              "ReadRequest",
	TagReadReply:                "ReadReply",
	TagWriteRequest:             "WriteRequest",
	TagWriteReply:               "WriteReply",
	TagCreateDirRequest:         "CreateDirRequest",
	TagCreateDirReply:           "CreateDirReply",
	TagRemoveDirRequest:         "RemoveDirRequest",
	TagRemoveDirReply:           "RemoveDirReply",
	TagOpenDirRequest:           "OpenDirRequest",
	TagOpenDirReply:             "OpenDirReply",
	TagReadDirRequest:           "ReadDirRequest",
	TagReadDirReply:             "ReadDirReply",
	TagRewindDirRequest:        "RewindDirRequest",
	TagRewindDirReply:          "RewindDirReply",
	TagUnlinkRequest:            "UnlinkRequest",
	TagUnlinkReply:              "UnlinkReply",
	TagRenameRequest:            "RenameRequest",
	TagRenameReply:              "RenameReply",
	TagCreateSymlinkRequest:     "CreateSymlinkRequest",
	TagCreateSymlinkReply:       "CreateSymlinkReply",
	TagReadSymlinkRequest:       "ReadSymlinkRequest",
	TagReadSymlinkReply:         "ReadSymlinkReply",
	TagIOCtlRequest:             "IOCtlRequest",
	TagIOCtlReply:               "IOCtlReply",
	TagSetFlagsRequest:          "SetFlagsRequest",
	TagSetFlagsReply:            "SetFlagsReply",
	TagSelectRequest:            "SelectRequest",
	TagSelectReply:              "SelectReply",
	TagDeselectRequest:          "DeselectRequest",
	TagDeselectReply:            "DeselectReply",
	TagReceiptAckRequest:        "ReceiptAckRequest",
	TagGetVNodeRequest:          "GetVNodeRequest",
	TagGetVNodeReply:            "GetVNodeReply",
	TagPutVNodeRequest:          "PutVNodeRequest",
	TagPutVNodeReply:            "PutVNodeReply",
	TagNewVNodeRequest:          "NewVNodeRequest",
	TagNewVNodeReply:            "NewVNodeReply",
	TagPublishVNodeRequest:      "PublishVNodeRequest",
	TagPublishVNodeReply:        "PublishVNodeReply",
	TagRemoveVNodeRequest:       "RemoveVNodeRequest",
	TagRemoveVNodeReply:         "RemoveVNodeReply",
	TagUnremoveVNodeRequest:     "UnremoveVNodeRequest",
	TagUnremoveVNodeReply:       "UnremoveVNodeReply",
	TagGetVNodeRemovedRequest:   "GetVNodeRemovedRequest",
	TagGetVNodeRemovedReply:     "GetVNodeRemovedReply",
	TagNotifyListenerRequest:    "NotifyListenerRequest",
	TagNotifyListenerReply:      "NotifyListenerReply",
	TagNotifySelectEventRequest: "NotifySelectEventRequest",
	TagNotifySelectEventReply:   "NotifySelectEventReply",
	TagSendNotificationRequest:  "SendNotificationRequest",
	TagSendNotificationReply:    "SendNotificationReply",
}
