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

// Package portlog is the low-level wire-tracing logger for internal/port:
// one line per port acquire/release/disconnect. Nothing logs individual
// messages sent or received through it. Domain-level events (mount,
// unmount, notification-thread lifecycle) use logrus instead -- see
// filesystem and volume -- this package exists only for the message-level
// detail that would otherwise drown out a structured log at normal
// verbosity, the same split jacobsa/fuse's debug.go makes between its own
// -fuse.debug trace and a caller's application logging.
package portlog

import (
	"flag"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"userlandfs.wiredebug",
	false,
	"Write low-level port/wire tracing messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	var writer io.Writer = ioutil.Discard
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "userlandfs/wire: ", flags)
}

// Get returns the package-wide wire-tracing logger, discarding output
// unless -userlandfs.wiredebug was passed (or flags haven't been parsed
// yet, e.g. under `go test`).
func Get() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
