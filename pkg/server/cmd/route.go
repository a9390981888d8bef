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

package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const routeUsage = `Usage:
  trailsync-server route [command]

Available commands:
  create: Publish an empty route owned by a user`

func routeCreateCmd(args []string, out io.Writer) error {
	fs := setupFlagSet("create", "trailsync-server route create")

	username := fs.String("username", "", "Owner of the route (required)")
	slug := fs.String("slug", "", "Unique slug of the route (required)")
	name := fs.String("name", "", "Display name (required)")
	region := fs.String("region", "", "Region the route belongs to")
	db := addDBFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireString(*username, "username"); err != nil {
		return err
	}
	if err := requireString(*slug, "slug"); err != nil {
		return err
	}
	if err := requireString(*name, "name"); err != nil {
		return err
	}

	a, cleanup, err := setupAppWithDB(db.params())
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := a.GetUserByUsername(*username)
	if err != nil {
		return errors.Wrapf(err, "finding user '%s'", *username)
	}

	route, err := a.CreateRoute(user.ID, *slug, *name, *region)
	if err != nil {
		return errors.Wrap(err, "creating route")
	}

	fmt.Fprintf(out, "Route created successfully\n")
	fmt.Fprintf(out, "ID: %d\n", route.ID)
	fmt.Fprintf(out, "Slug: %s\n", route.Slug)

	return nil
}

func routeCmd(args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, routeUsage)
		return errors.New("missing subcommand")
	}

	switch args[0] {
	case "create":
		return routeCreateCmd(args[1:], out)
	default:
		fmt.Fprintln(out, routeUsage)
		return errors.Errorf("unknown subcommand: %s", args[0])
	}
}
