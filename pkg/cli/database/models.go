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
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/status"
)

// Comment kinds
const (
	CommentKindRoute    = "route"
	CommentKindWaypoint = "waypoint"
)

// Route holds a route
type Route struct {
	ID           int
	UserID       int
	Slug         string
	Name         string
	Region       string
	Rating       int
	CreatedAt    int64
	UpdatedAt    int64
	SyncStatus   status.Status
	LastSyncedAt int64
}

// Insert inserts a new route
func (r Route) Insert(db *DB) error {
	_, err := db.Exec(`INSERT INTO routes
		(id, user_id, slug, name, region, rating, created_at, updated_at, sync_status, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Slug, r.Name, r.Region, r.Rating, r.CreatedAt, r.UpdatedAt, r.SyncStatus, r.LastSyncedAt)
	if err != nil {
		return errors.Wrapf(err, "inserting route with id %d", r.ID)
	}

	return nil
}

// Upsert inserts the route or overwrites the existing row with the same id.
// The row is updated in place so that children are not cascaded away.
func (r Route) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO routes
		(id, user_id, slug, name, region, rating, created_at, updated_at, sync_status, last_synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			slug = excluded.slug,
			name = excluded.name,
			region = excluded.region,
			rating = excluded.rating,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			last_synced_at = excluded.last_synced_at`,
		r.ID, r.UserID, r.Slug, r.Name, r.Region, r.Rating, r.CreatedAt, r.UpdatedAt, r.SyncStatus, r.LastSyncedAt)
	if err != nil {
		return errors.Wrapf(err, "upserting route with id %d", r.ID)
	}

	return nil
}

// Update updates the route with the given id
func (r Route) Update(db *DB) error {
	_, err := db.Exec(`UPDATE routes SET
		user_id = ?, slug = ?, name = ?, region = ?, rating = ?, created_at = ?, updated_at = ?, sync_status = ?, last_synced_at = ?
		WHERE id = ?`,
		r.UserID, r.Slug, r.Name, r.Region, r.Rating, r.CreatedAt, r.UpdatedAt, r.SyncStatus, r.LastSyncedAt, r.ID)
	if err != nil {
		return errors.Wrapf(err, "updating route with id %d", r.ID)
	}

	return nil
}

// Expunge hard-deletes the route and, through cascades, all of its children
func (r Route) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM routes WHERE id = ?", r.ID); err != nil {
		return errors.Wrapf(err, "expunging route with id %d", r.ID)
	}

	return nil
}

// GPXSegment holds a serialized track segment
type GPXSegment struct {
	ID       int
	RouteID  int
	Name     string
	Geometry string
}

// Insert inserts a new gpx segment
func (g GPXSegment) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO gpx_segments (id, route_id, name, geometry) VALUES (?, ?, ?, ?)",
		g.ID, g.RouteID, g.Name, g.Geometry)
	if err != nil {
		return errors.Wrapf(err, "inserting gpx segment with id %d", g.ID)
	}

	return nil
}

// Waypoint holds a waypoint of a route
type Waypoint struct {
	ID          int
	RouteID     int
	UserID      int
	Name        string
	Description string
	Lat         float64
	Lon         float64
	Type        string
	Rating      int
	CreatedAt   int64
	UpdatedAt   int64
	SyncStatus  status.Status
}

// Insert inserts a new waypoint
func (w Waypoint) Insert(db *DB) error {
	_, err := db.Exec(`INSERT INTO waypoints
		(id, route_id, user_id, name, description, lat, lon, type, rating, created_at, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.RouteID, w.UserID, w.Name, w.Description, w.Lat, w.Lon, w.Type, w.Rating, w.CreatedAt, w.UpdatedAt, w.SyncStatus)
	if err != nil {
		return errors.Wrapf(err, "inserting waypoint with id %d", w.ID)
	}

	return nil
}

// Upsert inserts the waypoint or overwrites the existing row with the same id
func (w Waypoint) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO waypoints
		(id, route_id, user_id, name, description, lat, lon, type, rating, created_at, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			route_id = excluded.route_id,
			user_id = excluded.user_id,
			name = excluded.name,
			description = excluded.description,
			lat = excluded.lat,
			lon = excluded.lon,
			type = excluded.type,
			rating = excluded.rating,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status`,
		w.ID, w.RouteID, w.UserID, w.Name, w.Description, w.Lat, w.Lon, w.Type, w.Rating, w.CreatedAt, w.UpdatedAt, w.SyncStatus)
	if err != nil {
		return errors.Wrapf(err, "upserting waypoint with id %d", w.ID)
	}

	return nil
}

// Update updates the waypoint with the given id
func (w Waypoint) Update(db *DB) error {
	_, err := db.Exec(`UPDATE waypoints SET
		route_id = ?, user_id = ?, name = ?, description = ?, lat = ?, lon = ?, type = ?, rating = ?, created_at = ?, updated_at = ?, sync_status = ?
		WHERE id = ?`,
		w.RouteID, w.UserID, w.Name, w.Description, w.Lat, w.Lon, w.Type, w.Rating, w.CreatedAt, w.UpdatedAt, w.SyncStatus, w.ID)
	if err != nil {
		return errors.Wrapf(err, "updating waypoint with id %d", w.ID)
	}

	return nil
}

// Expunge hard-deletes the waypoint along with its comments and ratings
func (w Waypoint) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM waypoints WHERE id = ?", w.ID); err != nil {
		return errors.Wrapf(err, "expunging waypoint with id %d", w.ID)
	}

	return nil
}

// Comment holds a comment on either a route or a waypoint
type Comment struct {
	ID         int
	UserID     int
	Kind       string
	WaypointID *int
	RouteID    *int
	Content    string
	Edited     bool
	Rating     int
	CreatedAt  int64
	UpdatedAt  int64
	SyncStatus status.Status
}

// Insert inserts a new comment
func (c Comment) Insert(db *DB) error {
	_, err := db.Exec(`INSERT INTO comments
		(id, user_id, kind, waypoint_id, route_id, content, edited, rating, created_at, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Kind, c.WaypointID, c.RouteID, c.Content, c.Edited, c.Rating, c.CreatedAt, c.UpdatedAt, c.SyncStatus)
	if err != nil {
		return errors.Wrapf(err, "inserting comment with id %d", c.ID)
	}

	return nil
}

// Upsert inserts the comment or overwrites the existing row with the same id
func (c Comment) Upsert(db *DB) error {
	_, err := db.Exec(`INSERT INTO comments
		(id, user_id, kind, waypoint_id, route_id, content, edited, rating, created_at, updated_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			kind = excluded.kind,
			waypoint_id = excluded.waypoint_id,
			route_id = excluded.route_id,
			content = excluded.content,
			edited = excluded.edited,
			rating = excluded.rating,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status`,
		c.ID, c.UserID, c.Kind, c.WaypointID, c.RouteID, c.Content, c.Edited, c.Rating, c.CreatedAt, c.UpdatedAt, c.SyncStatus)
	if err != nil {
		return errors.Wrapf(err, "upserting comment with id %d", c.ID)
	}

	return nil
}

// Update updates the comment with the given id
func (c Comment) Update(db *DB) error {
	_, err := db.Exec(`UPDATE comments SET
		user_id = ?, kind = ?, waypoint_id = ?, route_id = ?, content = ?, edited = ?, rating = ?, created_at = ?, updated_at = ?, sync_status = ?
		WHERE id = ?`,
		c.UserID, c.Kind, c.WaypointID, c.RouteID, c.Content, c.Edited, c.Rating, c.CreatedAt, c.UpdatedAt, c.SyncStatus, c.ID)
	if err != nil {
		return errors.Wrapf(err, "updating comment with id %d", c.ID)
	}

	return nil
}

// Expunge hard-deletes the comment along with its ratings
func (c Comment) Expunge(db *DB) error {
	if _, err := db.Exec("DELETE FROM comments WHERE id = ?", c.ID); err != nil {
		return errors.Wrapf(err, "expunging comment with id %d", c.ID)
	}

	return nil
}

// Rating holds the vote of a user on a route, a waypoint or a comment
type Rating struct {
	Kind       RatingKind
	UserID     int
	TargetID   int
	Val        int
	SyncStatus status.Status
}

// Insert inserts a new rating
func (r Rating) Insert(db *DB) error {
	query := "INSERT INTO " + r.Kind.Table() + " (user_id, " + r.Kind.TargetColumn() + ", val, sync_status) VALUES (?, ?, ?, ?)"
	if _, err := db.Exec(query, r.UserID, r.TargetID, r.Val, r.SyncStatus); err != nil {
		return errors.Wrapf(err, "inserting %s rating of user %d on %d", r.Kind, r.UserID, r.TargetID)
	}

	return nil
}

// Update updates the value and the status of the rating
func (r Rating) Update(db *DB) error {
	query := "UPDATE " + r.Kind.Table() + " SET val = ?, sync_status = ? WHERE user_id = ? AND " + r.Kind.TargetColumn() + " = ?"
	if _, err := db.Exec(query, r.Val, r.SyncStatus, r.UserID, r.TargetID); err != nil {
		return errors.Wrapf(err, "updating %s rating of user %d on %d", r.Kind, r.UserID, r.TargetID)
	}

	return nil
}

// Expunge hard-deletes the rating
func (r Rating) Expunge(db *DB) error {
	query := "DELETE FROM " + r.Kind.Table() + " WHERE user_id = ? AND " + r.Kind.TargetColumn() + " = ?"
	if _, err := db.Exec(query, r.UserID, r.TargetID); err != nil {
		return errors.Wrapf(err, "expunging %s rating of user %d on %d", r.Kind, r.UserID, r.TargetID)
	}

	return nil
}

// RouteFavorite marks a route as a favorite of a user
type RouteFavorite struct {
	UserID     int
	RouteID    int
	SyncStatus status.Status
}

// Insert inserts a new favorite
func (f RouteFavorite) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO route_favorites (user_id, route_id, sync_status) VALUES (?, ?, ?)",
		f.UserID, f.RouteID, f.SyncStatus)
	if err != nil {
		return errors.Wrapf(err, "inserting favorite of user %d on route %d", f.UserID, f.RouteID)
	}

	return nil
}

// Update updates the status of the favorite
func (f RouteFavorite) Update(db *DB) error {
	_, err := db.Exec("UPDATE route_favorites SET sync_status = ? WHERE user_id = ? AND route_id = ?",
		f.SyncStatus, f.UserID, f.RouteID)
	if err != nil {
		return errors.Wrapf(err, "updating favorite of user %d on route %d", f.UserID, f.RouteID)
	}

	return nil
}

// Expunge hard-deletes the favorite
func (f RouteFavorite) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM route_favorites WHERE user_id = ? AND route_id = ?", f.UserID, f.RouteID)
	if err != nil {
		return errors.Wrapf(err, "expunging favorite of user %d on route %d", f.UserID, f.RouteID)
	}

	return nil
}
