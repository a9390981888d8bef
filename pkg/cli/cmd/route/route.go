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

// Package route edits the metadata of a downloaded route
package route

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * Rename a route you own
  trail route edit 42 --name "Haute Route"

  * Change the region of a route
  trail route edit 42 --region "Valais"`

var (
	nameFlag   string
	regionFlag string
)

// NewCmd returns a new route command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "route",
		Short:   "Manage routes you own",
		Example: example,
	}

	edit := &cobra.Command{
		Use:     "edit <route id>",
		Short:   "Edit the name or region of a route",
		PreRunE: preRunEdit,
		RunE:    newEditRun(ctx),
	}
	f := edit.Flags()
	f.StringVarP(&nameFlag, "name", "n", "", "a new name for the route")
	f.StringVarP(&regionFlag, "region", "r", "", "a new region for the route")

	cmd.AddCommand(edit)

	return cmd
}

func preRunEdit(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// EditFromFlags builds an edit out of the flags set on the command line
func EditFromFlags(f *pflag.FlagSet) (operations.RouteEdit, error) {
	var e operations.RouteEdit

	if f.Changed("name") {
		v, err := f.GetString("name")
		if err != nil {
			return e, err
		}
		e.Name = &v
	}
	if f.Changed("region") {
		v, err := f.GetString("region")
		if err != nil {
			return e, err
		}
		e.Region = &v
	}

	if e.Name == nil && e.Region == nil {
		return e, errors.New("nothing to edit. Pass --name or --region")
	}

	return e, nil
}

func newEditRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		routeID, err := utils.ParseID(args[0])
		if err != nil {
			return errors.Wrap(err, "parsing route id")
		}

		e, err := EditFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		user, err := infra.CurrentUser(ctx)
		if err != nil {
			return err
		}

		r, changed, err := operations.UpdateRoute(ctx.DB, ctx.Clock, user.UserID, routeID, e)
		if err != nil {
			return errors.Wrap(err, "editing route")
		}
		if !changed {
			log.Info("nothing changed\n")
			return nil
		}

		favorite, err := operations.IsFavorite(ctx.DB, user.UserID, routeID)
		if err != nil {
			return err
		}

		log.Successf("edited route %d\n", r.ID)
		output.RouteInfo(r, favorite)

		return nil
	}
}
