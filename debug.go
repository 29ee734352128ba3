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
	"flag"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"userlandfs.debug",
	false,
	"Write gateway mount/unmount debugging messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	var writer io.Writer = ioutil.Discard
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "userlandfs: ", flags)
}

// getLogger returns the package-wide debug logger, discarding output
// unless -userlandfs.debug was passed. Domain state transitions logged
// through this (rather than through logrus, which volume and filesystem
// use for their own per-instance structured logs) are the ones belonging
// to the root package itself: Mount/Unmount entry and exit.
func getLogger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
