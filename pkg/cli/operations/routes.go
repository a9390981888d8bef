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

// Package operations implements the local mutations of the replica. Each
// mutation checks ownership, writes the row and advances its sync status.
package operations

import (
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/validate"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

// RouteEdit holds the route fields to change. Nil fields are left as is.
type RouteEdit struct {
	Name   *string
	Region *string
}

// GetRoute returns a visible route
func GetRoute(db *database.DB, routeID int) (database.Route, error) {
	r, err := database.GetRoute(db, routeID)
	if database.IsNotFound(err) {
		return r, syncerr.NewNotFound("route", routeID)
	} else if err != nil {
		return r, errors.Wrap(err, "finding route")
	}

	if !status.IsVisible(r.SyncStatus) {
		return r, syncerr.NewNotFound("route", routeID)
	}

	return r, nil
}

// ListRoutes returns the routes stored locally
func ListRoutes(db *database.DB) ([]database.Route, error) {
	return database.ListRoutes(db)
}

// UpdateRoute edits a route owned by the user. It reports false without
// writing anything when the edit changes nothing.
func UpdateRoute(db *database.DB, c clock.Clock, userID, routeID int, e RouteEdit) (database.Route, bool, error) {
	if e.Name != nil {
		if err := validate.RouteName(*e.Name); err != nil {
			return database.Route{}, false, err
		}
	}

	var ret database.Route
	var changed bool

	err := database.RunInTx(db, func(tx *database.DB) error {
		r, err := GetRoute(tx, routeID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return syncerr.NewNotOwner("route", routeID, userID)
		}

		ret = r
		if e.Name != nil && *e.Name != r.Name {
			r.Name = *e.Name
			changed = true
		}
		if e.Region != nil && *e.Region != r.Region {
			r.Region = *e.Region
			changed = true
		}
		if !changed {
			return nil
		}

		r.SyncStatus = status.OnUpdate(r.SyncStatus)
		r.UpdatedAt = c.Now().UnixNano()
		if err := r.Update(tx); err != nil {
			return errors.Wrap(err, "updating route")
		}

		ret = r
		return nil
	})
	if err != nil {
		return database.Route{}, false, err
	}

	return ret, changed, nil
}
