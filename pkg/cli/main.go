/* Copyright 2025 Trailsync Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"

	// commands
	"github.com/trailsync/trailsync/pkg/cli/cmd/comment"
	"github.com/trailsync/trailsync/pkg/cli/cmd/favorite"
	"github.com/trailsync/trailsync/pkg/cli/cmd/login"
	"github.com/trailsync/trailsync/pkg/cli/cmd/logout"
	"github.com/trailsync/trailsync/pkg/cli/cmd/root"
	"github.com/trailsync/trailsync/pkg/cli/cmd/route"
	"github.com/trailsync/trailsync/pkg/cli/cmd/routes"
	statuscmd "github.com/trailsync/trailsync/pkg/cli/cmd/status"
	"github.com/trailsync/trailsync/pkg/cli/cmd/sync"
	"github.com/trailsync/trailsync/pkg/cli/cmd/version"
	"github.com/trailsync/trailsync/pkg/cli/cmd/view"
	"github.com/trailsync/trailsync/pkg/cli/cmd/vote"
	"github.com/trailsync/trailsync/pkg/cli/cmd/waypoint"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts the --dbPath value from the arguments wherever it
// appears. It returns an empty string if the flag is absent.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// The database is opened before cobra parses flags, and --dbPath may
	// follow the subcommand, so it is picked out of the raw arguments.
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}
	defer ctx.DB.Close()

	root.Register(login.NewCmd(*ctx))
	root.Register(logout.NewCmd(*ctx))
	root.Register(routes.NewCmd(*ctx))
	root.Register(view.NewCmd(*ctx))
	root.Register(route.NewCmd(*ctx))
	root.Register(waypoint.NewCmd(*ctx))
	root.Register(comment.NewCmd(*ctx))
	root.Register(vote.NewCmd(*ctx))
	root.Register(favorite.NewCmd(*ctx))
	root.Register(statuscmd.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	if err := root.Execute(); err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
