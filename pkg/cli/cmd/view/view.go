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

// Package view prints a downloaded route with its waypoints and comments
package view

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * View a route
  trail view 42

  * View a route without comments
  trail view 42 --no-comments`

var noComments bool

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new view command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <route id>",
		Aliases: []string{"v"},
		Short:   "View a downloaded route",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVarP(&noComments, "no-comments", "", false, "do not print comments")

	return cmd
}

// RouteView holds everything printed for a route
type RouteView struct {
	Route     database.Route
	Favorite  bool
	Waypoints []database.Waypoint
	// Comments maps a waypoint id to its comments. Route-level comments
	// are under 0.
	Comments map[int][]database.Comment
}

// Load reads a route and its children. Favorite is only looked up when
// userID is non-zero.
func Load(db *database.DB, routeID, userID int) (RouteView, error) {
	ret := RouteView{Comments: map[int][]database.Comment{}}

	route, err := operations.GetRoute(db, routeID)
	if err != nil {
		return ret, err
	}
	ret.Route = route

	if userID != 0 {
		if ret.Favorite, err = operations.IsFavorite(db, userID, routeID); err != nil {
			return ret, err
		}
	}

	if ret.Waypoints, err = operations.ListWaypoints(db, routeID); err != nil {
		return ret, err
	}

	if ret.Comments[0], err = operations.ListComments(db, database.CommentKindRoute, routeID); err != nil {
		return ret, err
	}
	for _, w := range ret.Waypoints {
		if ret.Comments[w.ID], err = operations.ListComments(db, database.CommentKindWaypoint, w.ID); err != nil {
			return ret, err
		}
	}

	return ret, nil
}

func printView(v RouteView) {
	output.RouteInfo(v.Route, v.Favorite)

	log.Plain("\n")
	log.Infof("%d waypoints\n", len(v.Waypoints))
	for _, w := range v.Waypoints {
		output.WaypointInfo(w)
		if noComments {
			continue
		}
		for _, c := range v.Comments[w.ID] {
			output.CommentInfo(c, 2)
		}
	}

	if noComments {
		return
	}

	log.Plain("\n")
	log.Infof("%d comments on the route\n", len(v.Comments[0]))
	for _, c := range v.Comments[0] {
		output.CommentInfo(c, 1)
	}
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		routeID, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing route id")
		}

		// viewing works logged out, only the favorite flag needs a user
		var userID int
		if id, err := infra.CurrentUser(ctx); err == nil {
			userID = id.UserID
		}

		v, err := Load(ctx.DB, routeID, userID)
		if err != nil {
			return errors.Wrap(err, "loading route")
		}

		printView(v)

		return nil
	}
}
