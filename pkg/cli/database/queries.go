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

package database

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/status"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// IsNotFound reports whether err stems from a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

const routeColumns = "id, user_id, slug, name, region, rating, created_at, updated_at, sync_status, last_synced_at"

func scanRoute(s scanner) (Route, error) {
	var r Route
	err := s.Scan(&r.ID, &r.UserID, &r.Slug, &r.Name, &r.Region, &r.Rating, &r.CreatedAt, &r.UpdatedAt, &r.SyncStatus, &r.LastSyncedAt)
	return r, err
}

// GetRoute returns the route with the given id, including tombstones
func GetRoute(db *DB, id int) (Route, error) {
	r, err := scanRoute(db.QueryRow("SELECT "+routeColumns+" FROM routes WHERE id = ?", id))
	if err != nil {
		return r, errors.Wrapf(err, "finding route %d", id)
	}

	return r, nil
}

// ListRoutes returns the visible routes, ordered by name
func ListRoutes(db *DB) ([]Route, error) {
	rows, err := db.Query("SELECT "+routeColumns+" FROM routes WHERE sync_status != ? ORDER BY name, id", status.Deleted)
	if err != nil {
		return nil, errors.Wrap(err, "querying routes")
	}
	defer rows.Close()

	ret := []Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning route")
		}
		ret = append(ret, r)
	}

	return ret, rows.Err()
}

const waypointColumns = "id, route_id, user_id, name, description, lat, lon, type, rating, created_at, updated_at, sync_status"

func scanWaypoint(s scanner) (Waypoint, error) {
	var w Waypoint
	err := s.Scan(&w.ID, &w.RouteID, &w.UserID, &w.Name, &w.Description, &w.Lat, &w.Lon, &w.Type, &w.Rating, &w.CreatedAt, &w.UpdatedAt, &w.SyncStatus)
	return w, err
}

// GetWaypoint returns the waypoint with the given id, including tombstones
func GetWaypoint(db *DB, id int) (Waypoint, error) {
	w, err := scanWaypoint(db.QueryRow("SELECT "+waypointColumns+" FROM waypoints WHERE id = ?", id))
	if err != nil {
		return w, errors.Wrapf(err, "finding waypoint %d", id)
	}

	return w, nil
}

// ListWaypoints returns the visible waypoints of a route
func ListWaypoints(db *DB, routeID int) ([]Waypoint, error) {
	rows, err := db.Query("SELECT "+waypointColumns+" FROM waypoints WHERE route_id = ? AND sync_status != ? ORDER BY created_at, id",
		routeID, status.Deleted)
	if err != nil {
		return nil, errors.Wrap(err, "querying waypoints")
	}
	defer rows.Close()

	ret := []Waypoint{}
	for rows.Next() {
		w, err := scanWaypoint(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning waypoint")
		}
		ret = append(ret, w)
	}

	return ret, rows.Err()
}

const commentColumns = "id, user_id, kind, waypoint_id, route_id, content, edited, rating, created_at, updated_at, sync_status"

func scanComment(s scanner) (Comment, error) {
	var c Comment
	err := s.Scan(&c.ID, &c.UserID, &c.Kind, &c.WaypointID, &c.RouteID, &c.Content, &c.Edited, &c.Rating, &c.CreatedAt, &c.UpdatedAt, &c.SyncStatus)
	return c, err
}

// GetComment returns the comment with the given id, including tombstones
func GetComment(db *DB, id int) (Comment, error) {
	c, err := scanComment(db.QueryRow("SELECT "+commentColumns+" FROM comments WHERE id = ?", id))
	if err != nil {
		return c, errors.Wrapf(err, "finding comment %d", id)
	}

	return c, nil
}

func queryComments(db *DB, where string, args ...interface{}) ([]Comment, error) {
	args = append(args, status.Deleted)
	rows, err := db.Query("SELECT "+commentColumns+" FROM comments WHERE "+where+" AND sync_status != ? ORDER BY created_at, id", args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	defer rows.Close()

	ret := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning comment")
		}
		ret = append(ret, c)
	}

	return ret, rows.Err()
}

// ListRouteComments returns the visible route-level comments of a route
func ListRouteComments(db *DB, routeID int) ([]Comment, error) {
	return queryComments(db, "kind = 'route' AND route_id = ?", routeID)
}

// ListWaypointComments returns the visible comments of a waypoint
func ListWaypointComments(db *DB, waypointID int) ([]Comment, error) {
	return queryComments(db, "kind = 'waypoint' AND waypoint_id = ?", waypointID)
}

// ListGPXSegments returns the gpx segments of a route
func ListGPXSegments(db *DB, routeID int) ([]GPXSegment, error) {
	rows, err := db.Query("SELECT id, route_id, name, geometry FROM gpx_segments WHERE route_id = ? ORDER BY id", routeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying gpx segments")
	}
	defer rows.Close()

	ret := []GPXSegment{}
	for rows.Next() {
		var g GPXSegment
		if err := rows.Scan(&g.ID, &g.RouteID, &g.Name, &g.Geometry); err != nil {
			return nil, errors.Wrap(err, "scanning gpx segment")
		}
		ret = append(ret, g)
	}

	return ret, rows.Err()
}

// GetRating returns the vote of a user on a target, including tombstones
func GetRating(db *DB, kind RatingKind, userID, targetID int) (Rating, error) {
	r := Rating{Kind: kind, UserID: userID, TargetID: targetID}

	query := "SELECT val, sync_status FROM " + kind.Table() + " WHERE user_id = ? AND " + kind.TargetColumn() + " = ?"
	if err := db.QueryRow(query, userID, targetID).Scan(&r.Val, &r.SyncStatus); err != nil {
		return r, errors.Wrapf(err, "finding %s rating of user %d on %d", kind, userID, targetID)
	}

	return r, nil
}

// SumRatings returns the sum of the visible votes on a target
func SumRatings(db *DB, kind RatingKind, targetID int) (int, error) {
	var total int

	query := "SELECT COALESCE(SUM(val), 0) FROM " + kind.Table() + " WHERE " + kind.TargetColumn() + " = ? AND sync_status != ?"
	if err := db.QueryRow(query, targetID, status.Deleted).Scan(&total); err != nil {
		return 0, errors.Wrapf(err, "summing %s ratings on %d", kind, targetID)
	}

	return total, nil
}

// SetCachedRating writes the aggregate rating of a target into its row. It
// reports whether the target row exists.
func SetCachedRating(db *DB, kind RatingKind, targetID, total int) (bool, error) {
	res, err := db.Exec("UPDATE "+kind.ParentTable()+" SET rating = ? WHERE id = ?", total, targetID)
	if err != nil {
		return false, errors.Wrapf(err, "caching %s rating on %d", kind, targetID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}

	return n == 1, nil
}

// GetRouteFavorite returns the favorite of a user on a route, including tombstones
func GetRouteFavorite(db *DB, userID, routeID int) (RouteFavorite, error) {
	f := RouteFavorite{UserID: userID, RouteID: routeID}

	err := db.QueryRow("SELECT sync_status FROM route_favorites WHERE user_id = ? AND route_id = ?", userID, routeID).Scan(&f.SyncStatus)
	if err != nil {
		return f, errors.Wrapf(err, "finding favorite of user %d on route %d", userID, routeID)
	}

	return f, nil
}

// GetSystem scans the value of a system key into dest
func GetSystem(db *DB, key string, dest interface{}) error {
	if err := db.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(dest); err != nil {
		return errors.Wrapf(err, "finding system configuration record %s", key)
	}

	return nil
}

// UpsertSystem sets the value of a system key
func UpsertSystem(db *DB, key, val string) error {
	_, err := db.Exec(`INSERT INTO system (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	if err != nil {
		return errors.Wrapf(err, "saving system config %s", key)
	}

	return nil
}

// DeleteSystem removes a system key
func DeleteSystem(db *DB, key string) error {
	if _, err := db.Exec("DELETE FROM system WHERE key = ?", key); err != nil {
		return errors.Wrapf(err, "deleting system config %s", key)
	}

	return nil
}
