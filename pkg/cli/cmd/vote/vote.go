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

// Package vote casts votes on routes, waypoints and comments
package vote

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/rating"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * Upvote a route
  trail vote route 42 up

  * Downvote a comment. Voting the same way again clears the vote.
  trail vote comment 1700000000456 down`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new vote command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vote <route|waypoint|comment> <id> <up|down>",
		Short:   "Vote on a route, a waypoint or a comment",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

// ParseKind parses the kind of a vote target
func ParseKind(s string) (database.RatingKind, error) {
	k := database.RatingKind(s)
	if !k.Valid() {
		return "", errors.Errorf("unknown target '%s'. Expected route, waypoint or comment", s)
	}

	return k, nil
}

// ParseDirection parses up or down into a vote value
func ParseDirection(s string) (int, error) {
	switch s {
	case "up", "+1", "1":
		return 1, nil
	case "down", "-1":
		return -1, nil
	}

	return 0, errors.Errorf("unknown vote '%s'. Expected up or down", s)
}

func describe(r rating.Result) string {
	if r.UserRating == nil {
		return "vote cleared"
	}
	if *r.UserRating > 0 {
		return "upvoted"
	}

	return "downvoted"
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		kind, err := ParseKind(args[0])
		if err != nil {
			return err
		}
		targetID, err := utils.ParseID(args[1])
		if err != nil {
			return errors.Wrap(err, "parsing target id")
		}
		val, err := ParseDirection(args[2])
		if err != nil {
			return err
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		res, err := rating.Toggle(ctx.DB, kind, targetID, user.UserID, val)
		if err != nil {
			return errors.Wrap(err, "voting")
		}

		log.Successf("%s %s %d\n", describe(res), kind, targetID)
		log.Plain(fmt.Sprintf("  rating: %d\n", res.Total))

		return nil
	}
}
