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

// Package comment adds, edits and removes comments on routes and waypoints
package comment

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/ui"
	"github.com/trailsync/trailsync/pkg/cli/utils"
	"github.com/trailsync/trailsync/pkg/wire"
)

var example = `
  * Open an editor to comment on route 42
  trail comment add --route 42

  * Comment on a waypoint without launching an editor
  trail comment add --waypoint 1700000000123 -c "dry in late August"

  * Send stdin content to a comment
  echo "trail washed out below the hut" | trail comment add --route 42

  * Edit a comment
  trail comment edit 1700000000456

  * Remove a comment
  trail comment rm 1700000000456`

var (
	contentFlag  string
	routeFlag    int
	waypointFlag int
	yesFlag      bool
)

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("Incorrect number of argument")
		}

		return nil
	}
}

// NewCmd returns a new comment command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"c"},
		Short:   "Manage comments on routes and waypoints",
		Example: example,
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a comment",
		Args:  exactArgs(0),
		RunE:  newAddRun(ctx),
	}
	af := add.Flags()
	af.IntVarP(&routeFlag, "route", "r", 0, "the id of the route to comment on")
	af.IntVarP(&waypointFlag, "waypoint", "w", 0, "the id of the waypoint to comment on")
	af.StringVarP(&contentFlag, "content", "c", "", "the content of the comment")

	edit := &cobra.Command{
		Use:   "edit <comment id>",
		Short: "Edit a comment",
		Args:  exactArgs(1),
		RunE:  newEditRun(ctx),
	}
	edit.Flags().StringVarP(&contentFlag, "content", "c", "", "the new content of the comment")

	rm := &cobra.Command{
		Use:     "rm <comment id>",
		Aliases: []string{"remove"},
		Short:   "Remove a comment",
		Args:    exactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(add, edit, rm)

	return cmd
}

// Target returns the params of a comment on either a route or a waypoint.
// Exactly one of the ids must be given.
func Target(routeID, waypointID int) (operations.CommentParams, error) {
	var p operations.CommentParams

	switch {
	case routeID != 0 && waypointID != 0:
		return p, errors.New("a comment is either on a route or on a waypoint, not both")
	case routeID != 0:
		p.Kind = wire.CommentKindRoute
		p.RouteID = &routeID
	case waypointID != 0:
		p.Kind = wire.CommentKindWaypoint
		p.WaypointID = &waypointID
	default:
		return p, errors.New("--route or --waypoint is required")
	}

	return p, nil
}

func getContent(ctx context.TrailCtx, initial string) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	if ui.IsPiped() {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "Failed to get piped input")
		}
		return c, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath, initial)
	if err != nil {
		return "", errors.Wrap(err, "Failed to get editor input")
	}

	return strings.TrimSpace(c), nil
}

func newAddRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		p, err := Target(routeFlag, waypointFlag)
		if err != nil {
			return err
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		p.Content, err = getContent(ctx, "")
		if err != nil {
			return errors.Wrap(err, "getting content")
		}
		if p.Content == "" {
			return errors.New("Empty content")
		}

		c, err := operations.CreateComment(ctx.DB, ctx.Clock, user.UserID, p)
		if err != nil {
			return errors.Wrap(err, "adding comment")
		}

		log.Successf("added comment %d\n", c.ID)
		output.CommentInfo(c, 0)

		return nil
	}
}

func newEditRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing comment id")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		existing, err := database.GetComment(ctx.DB, id)
		if database.IsNotFound(err) {
			return errors.Errorf("comment %d not found", id)
		} else if err != nil {
			return errors.Wrap(err, "finding comment")
		}

		content, err := getContent(ctx, existing.Content)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		c, changed, err := operations.UpdateComment(ctx.DB, ctx.Clock, user.UserID, id, content)
		if err != nil {
			return errors.Wrap(err, "editing comment")
		}
		if !changed {
			log.Info("nothing changed\n")
			return nil
		}

		log.Successf("edited comment %d\n", c.ID)
		output.CommentInfo(c, 0)

		return nil
	}
}

func newRemoveRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing comment id")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		if !yesFlag {
			ok, err := ui.Confirm(fmt.Sprintf("remove comment %d?", id), false)
			if err != nil {
				return errors.Wrap(err, "getting user confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		action, err := operations.DeleteComment(ctx.DB, user.UserID, id)
		if err != nil {
			return errors.Wrap(err, "removing comment")
		}

		if action == status.Purge {
			log.Successf("removed comment %d\n", id)
		} else {
			log.Successf("removed comment %d. It will be deleted from the server on the next sync\n", id)
		}

		return nil
	}
}
