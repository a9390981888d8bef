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

// Package sync reconciles a downloaded route with the server
package sync

import (
	gocontext "context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/reconcile"
	"github.com/trailsync/trailsync/pkg/cli/ui"
	"github.com/trailsync/trailsync/pkg/cli/utils"
	"github.com/trailsync/trailsync/pkg/cli/utils/diff"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
)

var example = `
  * Push local changes, then download the latest version of the route
  trail sync 42

  * Only push local changes
  trail sync 42 --push-only

  * Throw away local changes and download the route again
  trail sync 42 --pull-only --force`

var (
	pushOnlyFlag bool
	pullOnlyFlag bool
	forceFlag    bool
	yesFlag      bool
)

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}
	if pushOnlyFlag && pullOnlyFlag {
		return errors.New("--push-only and --pull-only cannot be used together")
	}
	if forceFlag && !pullOnlyFlag {
		return errors.New("--force only applies to --pull-only")
	}

	return nil
}

// NewCmd returns a new sync command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync <route id>",
		Aliases: []string{"s"},
		Short:   "Sync a route with the server",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.BoolVar(&pushOnlyFlag, "push-only", false, "only push local changes")
	f.BoolVar(&pullOnlyFlag, "pull-only", false, "only download the route")
	f.BoolVar(&forceFlag, "force", false, "discard unsynced local changes when downloading")
	f.BoolVarP(&yesFlag, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// Preview returns the line diff between the local copy of a route and the
// bundle that would replace it
func Preview(db *database.DB, b wire.Bundle) ([]diff.Line, error) {
	local, err := reconcile.DescribeLocal(db, b.Route.ID)
	if err != nil {
		return nil, errors.Wrap(err, "describing the local route")
	}

	return diff.Lines(local, reconcile.DescribeBundle(b)), nil
}

// errCancelled is returned when the user refuses to discard local changes
var errCancelled = errors.New("sync cancelled by user")

// confirmDiscard shows what a forced download would discard and asks the
// user to go ahead. release is called before reading the answer so that an
// interrupt at the prompt ends the process.
func confirmDiscard(db *database.DB, release func()) func(wire.Bundle, database.PendingCounts) error {
	return func(b wire.Bundle, pending database.PendingCounts) error {
		lines, err := Preview(db, b)
		if err != nil {
			return err
		}
		if diff.Changed(lines) {
			output.Diff(color.Output, lines)
		}

		if yesFlag {
			return nil
		}

		release()
		ok, err := ui.Confirm(fmt.Sprintf("Discard %d unsynced changes?", pending.Total()), false)
		if err != nil {
			return errors.Wrap(err, "getting user confirmation")
		}
		if !ok {
			return errCancelled
		}

		return nil
	}
}

func resetInterrupt() {
	signal.Reset(os.Interrupt)
}

// pendingMessage explains why a download was refused
func pendingMessage(perr *syncerr.PendingChangesError, userID int, pullOnly bool) string {
	routeID := perr.RouteID

	if others := perr.ForeignAuthors(userID); len(others) > 0 {
		ids := make([]string, len(others))
		for i, id := range others {
			ids[i] = strconv.Itoa(id)
		}

		return fmt.Sprintf("route %d has unsynced changes made by another account on this device (user %s). Log in as that account and run 'trail sync %d', or run 'trail sync %d --pull-only --force' to discard them",
			routeID, strings.Join(ids, ", "), routeID, routeID)
	}

	if pullOnly {
		return fmt.Sprintf("route %d has unsynced local changes. Run 'trail sync %d' without --pull-only to push them, or add --force to discard them", routeID, routeID)
	}

	return fmt.Sprintf("route %d changed while it was being pushed. Run 'trail sync %d' again", routeID, routeID)
}

func printUpload(res *reconcile.UploadResult) {
	if res == nil {
		return
	}

	if res.Pushed == 0 {
		log.Info("nothing to push\n")
		return
	}

	log.Successf("pushed %d changes (%d applied, %d skipped)\n", res.Pushed, res.Applied, res.Skipped)
}

func printDownload(res *reconcile.DownloadResult) {
	if res == nil {
		return
	}

	log.Successf("downloaded %d waypoints and %d comments\n", res.Waypoints, res.Comments)
	if skipped := res.SkippedWaypoints + res.SkippedComments; skipped > 0 {
		log.Warnf("skipped %d invalid rows\n", skipped)
	}
	if res.Discarded > 0 {
		log.Warnf("discarded %d unsynced changes\n", res.Discarded)
	}
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		routeID, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing route id")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		c, stop := signal.NotifyContext(gocontext.Background(), os.Interrupt)
		defer stop()

		engine := infra.NewEngine(ctx)

		if pullOnlyFlag && forceFlag {
			res, err := engine.Download(c, routeID, reconcile.DownloadOptions{Force: true, Confirm: confirmDiscard(ctx.DB, resetInterrupt)})
			if err != nil {
				return errors.Wrap(err, "downloading")
			}

			printDownload(&res)
			return nil
		}

		res, err := engine.Reconcile(c, routeID, reconcile.ReconcileOptions{
			PushOnly: pushOnlyFlag,
			PullOnly: pullOnlyFlag,
		})
		printUpload(res.Upload)

		var perr *syncerr.PendingChangesError
		if errors.As(err, &perr) {
			return errors.New(pendingMessage(perr, user.UserID, pullOnlyFlag))
		} else if err != nil {
			return errors.Wrap(err, "syncing")
		}
		printDownload(res.Download)

		return nil
	}
}
