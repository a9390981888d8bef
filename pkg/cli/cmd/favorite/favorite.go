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

// Package favorite toggles a route in the favorites of the user
package favorite

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * Add route 42 to favorites, or remove it if it already is one
  trail favorite 42`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new favorite command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorite <route id>",
		Aliases: []string{"fav"},
		Short:   "Toggle a route in your favorites",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
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

		favorited, err := operations.ToggleFavorite(ctx.DB, user.UserID, routeID)
		if err != nil {
			return errors.Wrap(err, "toggling favorite")
		}

		if favorited {
			log.Successf("added route %d to favorites\n", routeID)
		} else {
			log.Successf("removed route %d from favorites\n", routeID)
		}

		return nil
	}
}
