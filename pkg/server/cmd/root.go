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

// Package cmd implements the commands of trailsync-server
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/buildinfo"
)

func rootCmd(out io.Writer) {
	fmt.Fprintf(out, `Trailsync server - sync hiking routes for offline use

Usage:
  trailsync-server [command] [flags]

Available commands:
  start: Start the server (use 'trailsync-server start --help' for flags)
  user: Manage users (use 'trailsync-server user' for subcommands)
  route: Manage routes (use 'trailsync-server route' for subcommands)
  repair: Recompute the cached ratings
  version: Print the version
`)
}

func versionCmd(out io.Writer) {
	fmt.Fprintf(out, "trailsync-server-%s\n", buildinfo.Version)
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		rootCmd(out)
		return nil
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "start":
		return startCmd(rest)
	case "user":
		return userCmd(rest, out)
	case "route":
		return routeCmd(rest, out)
	case "repair":
		return repairCmd(rest, out)
	case "version":
		versionCmd(out)
		return nil
	default:
		rootCmd(out)
		return errors.Errorf("unknown command %s", cmd)
	}
}

// Execute is the main entry point for the CLI
func Execute() {
	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
