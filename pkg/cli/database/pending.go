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
	"strings"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/status"
)

// commentScope matches the comments of a route, whether they target the
// route itself or one of its waypoints. It takes the route id twice.
const commentScope = "((kind = 'route' AND route_id = ?) OR (kind = 'waypoint' AND waypoint_id IN (SELECT id FROM waypoints WHERE route_id = ?)))"

// ratingScope returns the condition matching the votes on the targets of a route
func ratingScope(kind RatingKind, routeID int) (string, []interface{}) {
	switch kind {
	case RatingWaypoint:
		return "waypoint_id IN (SELECT id FROM waypoints WHERE route_id = ?)", []interface{}{routeID}
	case RatingComment:
		return "comment_id IN (SELECT id FROM comments WHERE " + commentScope + ")", []interface{}{routeID, routeID}
	}

	return "route_id = ?", []interface{}{routeID}
}

// PendingCounts holds the number of unpushed rows of a route per table
type PendingCounts struct {
	Route     int
	Waypoints int
	Comments  int
	Ratings   int
	Favorites int
}

// Total returns the number of unpushed rows
func (c PendingCounts) Total() int {
	return c.Route + c.Waypoints + c.Comments + c.Ratings + c.Favorites
}

func countPending(db *DB, table, where string, args ...interface{}) (int, error) {
	var n int

	args = append(args, status.Clean)
	query := "SELECT count(*) FROM " + table + " WHERE " + where + " AND sync_status != ?"
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting pending rows of %s", table)
	}

	return n, nil
}

// CountPending counts the unpushed rows of a route, whoever authored them
func CountPending(db *DB, routeID int) (PendingCounts, error) {
	var ret PendingCounts
	var err error

	if ret.Route, err = countPending(db, "routes", "id = ?", routeID); err != nil {
		return ret, err
	}
	if ret.Waypoints, err = countPending(db, "waypoints", "route_id = ?", routeID); err != nil {
		return ret, err
	}
	if ret.Comments, err = countPending(db, "comments", commentScope, routeID, routeID); err != nil {
		return ret, err
	}
	for _, kind := range RatingKinds {
		where, args := ratingScope(kind, routeID)
		n, err := countPending(db, kind.Table(), where, args...)
		if err != nil {
			return ret, err
		}
		ret.Ratings += n
	}
	if ret.Favorites, err = countPending(db, "route_favorites", "route_id = ?", routeID); err != nil {
		return ret, err
	}

	return ret, nil
}

// PendingAuthors returns the ids of the users who authored the unpushed
// rows of a route, in ascending order
func PendingAuthors(db *DB, routeID int) ([]int, error) {
	parts := []string{
		"SELECT user_id FROM routes WHERE id = ? AND sync_status != ?",
		"SELECT user_id FROM waypoints WHERE route_id = ? AND sync_status != ?",
		"SELECT user_id FROM comments WHERE " + commentScope + " AND sync_status != ?",
	}
	args := []interface{}{routeID, status.Clean, routeID, status.Clean, routeID, routeID, status.Clean}
	for _, kind := range RatingKinds {
		where, a := ratingScope(kind, routeID)
		parts = append(parts, "SELECT user_id FROM "+kind.Table()+" WHERE "+where+" AND sync_status != ?")
		args = append(append(args, a...), status.Clean)
	}
	parts = append(parts, "SELECT user_id FROM route_favorites WHERE route_id = ? AND sync_status != ?")
	args = append(args, routeID, status.Clean)

	rows, err := db.Query(strings.Join(parts, " UNION ")+" ORDER BY user_id", args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending authors")
	}
	defer rows.Close()

	ret := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning author")
		}
		ret = append(ret, id)
	}

	return ret, rows.Err()
}

// ListPendingWaypoints returns the unpushed waypoints of a route authored by the user
func ListPendingWaypoints(db *DB, routeID, userID int) ([]Waypoint, error) {
	rows, err := db.Query("SELECT "+waypointColumns+" FROM waypoints WHERE route_id = ? AND user_id = ? AND sync_status != ? ORDER BY id",
		routeID, userID, status.Clean)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending waypoints")
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

// ListPendingComments returns the unpushed comments of a route authored by the user
func ListPendingComments(db *DB, routeID, userID int) ([]Comment, error) {
	rows, err := db.Query("SELECT "+commentColumns+" FROM comments WHERE "+commentScope+" AND user_id = ? AND sync_status != ? ORDER BY id",
		routeID, routeID, userID, status.Clean)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending comments")
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

// ListPendingRatings returns the unpushed votes of the user on the targets of a route
func ListPendingRatings(db *DB, kind RatingKind, routeID, userID int) ([]Rating, error) {
	where, args := ratingScope(kind, routeID)
	args = append(args, userID, status.Clean)

	query := "SELECT " + kind.TargetColumn() + ", val, sync_status FROM " + kind.Table() +
		" WHERE " + where + " AND user_id = ? AND sync_status != ? ORDER BY " + kind.TargetColumn()
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying pending %s ratings", kind)
	}
	defer rows.Close()

	ret := []Rating{}
	for rows.Next() {
		r := Rating{Kind: kind, UserID: userID}
		if err := rows.Scan(&r.TargetID, &r.Val, &r.SyncStatus); err != nil {
			return nil, errors.Wrap(err, "scanning rating")
		}
		ret = append(ret, r)
	}

	return ret, rows.Err()
}

// ListPendingFavorites returns the unpushed favorites of the user on a route
func ListPendingFavorites(db *DB, routeID, userID int) ([]RouteFavorite, error) {
	rows, err := db.Query("SELECT sync_status FROM route_favorites WHERE route_id = ? AND user_id = ? AND sync_status != ?",
		routeID, userID, status.Clean)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending favorites")
	}
	defer rows.Close()

	ret := []RouteFavorite{}
	for rows.Next() {
		f := RouteFavorite{UserID: userID, RouteID: routeID}
		if err := rows.Scan(&f.SyncStatus); err != nil {
			return nil, errors.Wrap(err, "scanning favorite")
		}
		ret = append(ret, f)
	}

	return ret, rows.Err()
}

// ListRatings returns the visible votes on the targets of a route
func ListRatings(db *DB, kind RatingKind, routeID int) ([]Rating, error) {
	where, args := ratingScope(kind, routeID)
	args = append(args, status.Deleted)

	query := "SELECT user_id, " + kind.TargetColumn() + ", val, sync_status FROM " + kind.Table() +
		" WHERE " + where + " AND sync_status != ? ORDER BY " + kind.TargetColumn() + ", user_id"
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s ratings", kind)
	}
	defer rows.Close()

	ret := []Rating{}
	for rows.Next() {
		r := Rating{Kind: kind}
		if err := rows.Scan(&r.UserID, &r.TargetID, &r.Val, &r.SyncStatus); err != nil {
			return nil, errors.Wrap(err, "scanning rating")
		}
		ret = append(ret, r)
	}

	return ret, rows.Err()
}

// DeleteRouteChildren removes the gpx segments, waypoints, comments and
// route votes of a route. Cascades remove the votes on its waypoints and
// comments.
func DeleteRouteChildren(db *DB, routeID int) error {
	queries := []struct {
		what  string
		query string
	}{
		{what: "gpx segments", query: "DELETE FROM gpx_segments WHERE route_id = ?"},
		{what: "waypoints", query: "DELETE FROM waypoints WHERE route_id = ?"},
		{what: "route comments", query: "DELETE FROM comments WHERE kind = 'route' AND route_id = ?"},
		{what: "route ratings", query: "DELETE FROM route_ratings WHERE route_id = ?"},
		{what: "route favorites", query: "DELETE FROM route_favorites WHERE route_id = ?"},
	}

	for _, q := range queries {
		if _, err := db.Exec(q.query, routeID); err != nil {
			return errors.Wrapf(err, "deleting %s of route %d", q.what, routeID)
		}
	}

	return nil
}
