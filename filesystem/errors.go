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

package filesystem

import "errors"

// Returned when a reverse-dispatch message's routing prefix names a volume
// id this FileSystem has no mounted Volume for (already unmounted, or never
// mounted under this flavor).
var errUnknownVolume = errors.New("filesystem: unknown volume id in reverse-dispatch message")

// Returned for a notification-port message whose tag this FileSystem does
// not recognize as one of its reverse-dispatch or notify operations.
var errUnknownNotification = errors.New("filesystem: unrecognized notification tag")

// Returned by notify-listener when an operation that names a specific entry
// carries an empty name, and by notify-select-event when the select-sync
// token it names is not currently registered.
var errBadNotification = errors.New("filesystem: bad notification payload")
