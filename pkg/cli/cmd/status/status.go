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

// Package status reports the unsynced local changes of routes
package status

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/output"
	"github.com/trailsync/trailsync/pkg/cli/reconcile"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var example = `
  * Show unsynced changes of every downloaded route
  trail status

  * Show unsynced changes of one route
  trail status 42`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new status command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status <route id?>",
		Short:   "Show unsynced local changes",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	return cmd
}

// RouteStatus is the sync state of one route
type RouteStatus struct {
	Route   database.Route
	Pending database.PendingCounts
}

// Collect returns the sync state of the given routes, or of every local
// route when routeIDs is empty
func Collect(db *database.DB, routeIDs []int) ([]RouteStatus, error) {
	var routes []database.Route

	if len(routeIDs) == 0 {
		all, err := operations.ListRoutes(db)
		if err != nil {
			return nil, errors.Wrap(err, "listing routes")
		}
		routes = all
	}
	for _, id := range routeIDs {
		r, err := operations.GetRoute(db, id)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}

	ret := []RouteStatus{}
	for _, r := range routes {
		counts, err := reconcile.Pending(db, r.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "counting pending changes of route %d", r.ID)
		}
		ret = append(ret, RouteStatus{Route: r, Pending: counts})
	}

	return ret, nil
}

func lastSyncAt(db *database.DB) (string, error) {
	var val string
	if err := database.GetSystem(db, consts.SystemLastSyncAt, &val); err != nil {
		return "", errors.Wrap(err, "reading last sync time")
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return "", errors.Wrap(err, "parsing last sync time")
	}
	if ts == 0 {
		return "never", nil
	}

	return output.Timestamp(time.Unix(ts, 0).UnixNano()), nil
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var ids []int
		if len(args) == 1 {
			id, err := utils.ParseID(args[0])
			if err != nil {
				return errors.Wrap(err, "parsing route id")
			}
			ids = append(ids, id)
		}

		statuses, err := Collect(ctx.DB, ids)
		if err != nil {
			return err
		}

		last, err := lastSyncAt(ctx.DB)
		if err != nil {
			return err
		}
		log.Printf("last sync: %s\n", last)

		for _, s := range statuses {
			log.Infof("%s (%d), last synced %s\n", s.Route.Name, s.Route.ID, output.Timestamp(s.Route.LastSyncedAt))
			output.PendingCounts(s.Pending)
		}

		return nil
	}
}
