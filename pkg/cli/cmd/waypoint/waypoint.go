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

// Package waypoint adds, edits and removes waypoints of a downloaded route
package waypoint

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/ui"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * Add a waypoint to route 42
  trail waypoint add 42 --name "Spring" --lat 46.0211 --lon 7.7491 --type water

  * Move a waypoint
  trail waypoint edit 1700000000123 --lat 46.0213

  * Remove a waypoint
  trail waypoint rm 1700000000123`

var (
	nameFlag        string
	descriptionFlag string
	typeFlag        string
	latFlag         float64
	lonFlag         float64
	yesFlag         bool
)

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("Incorrect number of argument")
		}

		return nil
	}
}

func addFieldFlags(f *pflag.FlagSet) {
	f.StringVarP(&nameFlag, "name", "n", "", "the name of the waypoint")
	f.StringVarP(&descriptionFlag, "description", "d", "", "a description of the waypoint")
	f.StringVarP(&typeFlag, "type", "t", "", "the type of the waypoint")
	f.Float64Var(&latFlag, "lat", 0, "latitude in degrees")
	f.Float64Var(&lonFlag, "lon", 0, "longitude in degrees")
}

// NewCmd returns a new waypoint command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "waypoint",
		Aliases: []string{"wp"},
		Short:   "Manage waypoints of a downloaded route",
		Example: example,
	}

	add := &cobra.Command{
		Use:     "add <route id>",
		Short:   "Add a waypoint",
		PreRunE: preRunAdd,
		Args:    exactArgs(1),
		RunE:    newAddRun(ctx),
	}
	addFieldFlags(add.Flags())

	edit := &cobra.Command{
		Use:   "edit <waypoint id>",
		Short: "Edit a waypoint",
		Args:  exactArgs(1),
		RunE:  newEditRun(ctx),
	}
	addFieldFlags(edit.Flags())

	rm := &cobra.Command{
		Use:     "rm <waypoint id>",
		Aliases: []string{"remove"},
		Short:   "Remove a waypoint",
		Args:    exactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(add, edit, rm)

	return cmd
}

func preRunAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	if !f.Changed("lat") || !f.Changed("lon") {
		return errors.New("--lat and --lon are required")
	}

	return nil
}

// EditFromFlags builds an edit out of the flags set on the command line
func EditFromFlags(f *pflag.FlagSet) (operations.WaypointEdit, error) {
	var e operations.WaypointEdit

	if f.Changed("name") {
		v, err := f.GetString("name")
		if err != nil {
			return e, err
		}
		e.Name = &v
	}
	if f.Changed("description") {
		v, err := f.GetString("description")
		if err != nil {
			return e, err
		}
		e.Description = &v
	}
	if f.Changed("type") {
		v, err := f.GetString("type")
		if err != nil {
			return e, err
		}
		e.Type = &v
	}
	if f.Changed("lat") {
		v, err := f.GetFloat64("lat")
		if err != nil {
			return e, err
		}
		e.Lat = &v
	}
	if f.Changed("lon") {
		v, err := f.GetFloat64("lon")
		if err != nil {
			return e, err
		}
		e.Lon = &v
	}

	return e, nil
}

func newAddRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		routeID, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing route id")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		w, err := operations.CreateWaypoint(ctx.DB, ctx.Clock, user.UserID, operations.WaypointParams{
			RouteID:     routeID,
			Name:        nameFlag,
			Description: descriptionFlag,
			Lat:         latFlag,
			Lon:         lonFlag,
			Type:        typeFlag,
		})
		if err != nil {
			return errors.Wrap(err, "adding waypoint")
		}

		log.Successf("added waypoint %d\n", w.ID)
		output.WaypointInfo(w)

		return nil
	}
}

func newEditRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing waypoint id")
		}

		e, err := EditFromFlags(cmd.Flags())
		if err != nil {
			return errors.Wrap(err, "reading flags")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		w, changed, err := operations.UpdateWaypoint(ctx.DB, ctx.Clock, user.UserID, id, e)
		if err != nil {
			return errors.Wrap(err, "editing waypoint")
		}
		if !changed {
			log.Info("nothing changed\n")
			return nil
		}

		log.Successf("edited waypoint %d\n", w.ID)
		output.WaypointInfo(w)

		return nil
	}
}

func newRemoveRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing waypoint id")
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		if !yesFlag {
			ok, err := ui.Confirm(fmt.Sprintf("remove waypoint %d and its comments?", id), false)
			if err != nil {
				return errors.Wrap(err, "getting user confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		action, err := operations.DeleteWaypoint(ctx.DB, user.UserID, id)
		if err != nil {
			return errors.Wrap(err, "removing waypoint")
		}

		if action == status.Purge {
			log.Successf("removed waypoint %d\n", id)
		} else {
			log.Successf("removed waypoint %d. It will be deleted from the server on the next sync\n", id)
		}

		return nil
	}
}
