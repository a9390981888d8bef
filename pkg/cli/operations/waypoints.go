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

package operations

import (
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/rating"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/utils"
	"github.com/trailsync/trailsync/pkg/cli/validate"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

// WaypointParams holds the fields of a new waypoint
type WaypointParams struct {
	RouteID     int
	Name        string
	Description string
	Lat         float64
	Lon         float64
	Type        string
}

// WaypointEdit holds the waypoint fields to change. Nil fields are left as is.
type WaypointEdit struct {
	Name        *string
	Description *string
	Lat         *float64
	Lon         *float64
	Type        *string
}

func validateWaypoint(name string, lat, lon float64, typ string) error {
	if err := validate.WaypointName(name); err != nil {
		return err
	}
	if err := validate.Coordinates(lat, lon); err != nil {
		return err
	}

	return validate.WaypointType(typ)
}

// getVisibleWaypoint returns a waypoint that is not a tombstone
func getVisibleWaypoint(db *database.DB, id int) (database.Waypoint, error) {
	w, err := database.GetWaypoint(db, id)
	if database.IsNotFound(err) {
		return w, syncerr.NewNotFound("waypoint", id)
	} else if err != nil {
		return w, errors.Wrap(err, "finding waypoint")
	}

	if !status.IsVisible(w.SyncStatus) {
		return w, syncerr.NewNotFound("waypoint", id)
	}

	return w, nil
}

func getOwnedWaypoint(db *database.DB, id, userID int) (database.Waypoint, error) {
	w, err := getVisibleWaypoint(db, id)
	if err != nil {
		return w, err
	}
	if w.UserID != userID {
		return w, syncerr.NewNotOwner("waypoint", id, userID)
	}

	return w, nil
}

// CreateWaypoint adds a waypoint authored by the user to a route
func CreateWaypoint(db *database.DB, c clock.Clock, userID int, p WaypointParams) (database.Waypoint, error) {
	if err := validateWaypoint(p.Name, p.Lat, p.Lon, p.Type); err != nil {
		return database.Waypoint{}, err
	}

	id, err := utils.ReserveID(c)
	if err != nil {
		return database.Waypoint{}, errors.Wrap(err, "reserving an id")
	}

	now := c.Now().UnixNano()
	w := database.Waypoint{
		ID:          id,
		RouteID:     p.RouteID,
		UserID:      userID,
		Name:        p.Name,
		Description: p.Description,
		Lat:         p.Lat,
		Lon:         p.Lon,
		Type:        p.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncStatus:  status.OnCreate(),
	}

	err = database.RunInTx(db, func(tx *database.DB) error {
		if _, err := GetRoute(tx, p.RouteID); err != nil {
			return err
		}

		return w.Insert(tx)
	})
	if err != nil {
		return database.Waypoint{}, err
	}

	log.Debug("created waypoint %d on route %d\n", w.ID, w.RouteID)

	return w, nil
}

// UpdateWaypoint edits a waypoint authored by the user. It reports false
// without writing anything when the edit changes nothing.
func UpdateWaypoint(db *database.DB, c clock.Clock, userID, id int, e WaypointEdit) (database.Waypoint, bool, error) {
	var ret database.Waypoint
	var changed bool

	err := database.RunInTx(db, func(tx *database.DB) error {
		w, err := getOwnedWaypoint(tx, id, userID)
		if err != nil {
			return err
		}

		ret = w
		next := w
		if e.Name != nil {
			next.Name = *e.Name
		}
		if e.Description != nil {
			next.Description = *e.Description
		}
		if e.Lat != nil {
			next.Lat = *e.Lat
		}
		if e.Lon != nil {
			next.Lon = *e.Lon
		}
		if e.Type != nil {
			next.Type = *e.Type
		}

		if next == w {
			return nil
		}
		if err := validateWaypoint(next.Name, next.Lat, next.Lon, next.Type); err != nil {
			return err
		}

		next.SyncStatus = status.OnUpdate(w.SyncStatus)
		next.UpdatedAt = c.Now().UnixNano()
		if err := next.Update(tx); err != nil {
			return errors.Wrap(err, "updating waypoint")
		}

		ret = next
		changed = true
		return nil
	})
	if err != nil {
		return database.Waypoint{}, false, err
	}

	return ret, changed, nil
}

// DeleteWaypoint deletes a waypoint authored by the user. A waypoint that
// was never pushed is purged along with its comments and ratings. Otherwise
// it becomes a tombstone and only its unpushed children are purged.
func DeleteWaypoint(db *database.DB, userID, id int) (status.Action, error) {
	var action status.Action

	err := database.RunInTx(db, func(tx *database.DB) error {
		w, err := getOwnedWaypoint(tx, id, userID)
		if err != nil {
			return err
		}

		next, a := status.OnDelete(w.SyncStatus)
		action = a

		if a == status.Purge {
			return w.Expunge(tx)
		}

		if _, err := tx.Exec("DELETE FROM comments WHERE waypoint_id = ? AND sync_status = ?", id, status.New); err != nil {
			return errors.Wrap(err, "purging unpushed comments")
		}
		if _, err := tx.Exec("DELETE FROM waypoint_ratings WHERE waypoint_id = ? AND sync_status = ?", id, status.New); err != nil {
			return errors.Wrap(err, "purging unpushed ratings")
		}

		w.SyncStatus = next
		if err := w.Update(tx); err != nil {
			return err
		}

		if _, err := rating.Recompute(tx, database.RatingWaypoint, id); err != nil {
			return errors.Wrap(err, "recomputing aggregate")
		}

		return nil
	})
	if err != nil {
		return action, err
	}

	log.Debug("deleted waypoint %d (%s)\n", id, action)

	return action, nil
}

// ListWaypoints returns the visible waypoints of a visible route
func ListWaypoints(db *database.DB, routeID int) ([]database.Waypoint, error) {
	if _, err := GetRoute(db, routeID); err != nil {
		return nil, err
	}

	return database.ListWaypoints(db, routeID)
}
