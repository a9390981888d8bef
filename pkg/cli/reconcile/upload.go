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

package reconcile

import (
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/wire"
)

// UploadResult reports the outcome of an upload
type UploadResult struct {
	RouteID int
	// Pushed is the number of rows sent to the remote
	Pushed int
	// Applied and Skipped are reported by the remote
	Applied int
	Skipped int
	// Cleaned and Purged count the local rows settled after the push
	Cleaned int
	Purged  int
}

// Pending counts the unpushed rows of a route, whoever authored them
func Pending(db *database.DB, routeID int) (database.PendingCounts, error) {
	return database.CountPending(db, routeID)
}

// outbox holds the local rows collected for one push
type outbox struct {
	route     *database.Route
	waypoints []database.Waypoint
	comments  []database.Comment
	ratings   []database.Rating
	favorites []database.RouteFavorite
}

func (o outbox) len() int {
	n := len(o.waypoints) + len(o.comments) + len(o.ratings) + len(o.favorites)
	if o.route != nil {
		n++
	}

	return n
}

// collect reads the unpushed rows of a route authored by the user
func collect(db *database.DB, routeID, userID int) (outbox, error) {
	var ret outbox

	route, err := database.GetRoute(db, routeID)
	if err != nil && !database.IsNotFound(err) {
		return ret, errors.Wrap(err, "finding route")
	}
	if err == nil && route.UserID == userID && status.IsPending(route.SyncStatus) {
		ret.route = &route
	}

	if ret.waypoints, err = database.ListPendingWaypoints(db, routeID, userID); err != nil {
		return ret, err
	}
	if ret.comments, err = database.ListPendingComments(db, routeID, userID); err != nil {
		return ret, err
	}
	for _, kind := range database.RatingKinds {
		ratings, err := database.ListPendingRatings(db, kind, routeID, userID)
		if err != nil {
			return ret, err
		}
		ret.ratings = append(ret.ratings, ratings...)
	}
	if ret.favorites, err = database.ListPendingFavorites(db, routeID, userID); err != nil {
		return ret, err
	}

	return ret, nil
}

// changeSet translates the outbox to the wire shape of a push
func (o outbox) changeSet(routeID int) wire.ChangeSet {
	ret := wire.ChangeSet{
		RouteID:   routeID,
		Waypoints: []wire.WaypointChange{},
		Comments:  []wire.CommentChange{},
		Ratings: wire.RatingChanges{
			Route:    []wire.RatingChange{},
			Waypoint: []wire.RatingChange{},
			Comment:  []wire.RatingChange{},
		},
		Favorites: wire.FavoriteChanges{Route: []wire.FavoriteChange{}},
	}

	if o.route != nil {
		ret.Route = &wire.RouteChange{
			ID:         o.route.ID,
			Slug:       o.route.Slug,
			Name:       o.route.Name,
			Region:     o.route.Region,
			SyncStatus: string(o.route.SyncStatus),
		}
	}

	for _, w := range o.waypoints {
		ret.Waypoints = append(ret.Waypoints, wire.WaypointChange{
			ID:          w.ID,
			RouteID:     w.RouteID,
			Name:        w.Name,
			Description: w.Description,
			Lat:         w.Lat,
			Lon:         w.Lon,
			Type:        w.Type,
			SyncStatus:  string(w.SyncStatus),
		})
	}

	for _, c := range o.comments {
		ret.Comments = append(ret.Comments, wire.CommentChange{
			ID:         c.ID,
			Kind:       c.Kind,
			WaypointID: c.WaypointID,
			RouteID:    c.RouteID,
			Content:    c.Content,
			Edited:     c.Edited,
			SyncStatus: string(c.SyncStatus),
		})
	}

	for _, r := range o.ratings {
		change := wire.RatingChange{TargetID: r.TargetID, Rating: r.Val, SyncStatus: string(r.SyncStatus)}

		switch r.Kind {
		case database.RatingRoute:
			ret.Ratings.Route = append(ret.Ratings.Route, change)
		case database.RatingWaypoint:
			ret.Ratings.Waypoint = append(ret.Ratings.Waypoint, change)
		case database.RatingComment:
			ret.Ratings.Comment = append(ret.Ratings.Comment, change)
		}
	}

	for _, f := range o.favorites {
		ret.Favorites.Route = append(ret.Favorites.Route, wire.FavoriteChange{RouteID: f.RouteID, SyncStatus: string(f.SyncStatus)})
	}

	return ret
}

// settle applies the pushed transition to one row. The row is matched on
// its key, on the value it was pushed with (updated_at, or val for votes)
// and on its pushed status, so a row edited again in the meantime stays
// pending.
func settle(tx *database.DB, table, key string, keyArgs []interface{}, s status.Status, res *UploadResult) error {
	next, action := status.OnPushed(s)

	if action == status.Purge {
		args := append(append([]interface{}{}, keyArgs...), s)
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE "+key+" AND sync_status = ?", args...); err != nil {
			return errors.Wrapf(err, "purging pushed row of %s", table)
		}
		res.Purged++
		return nil
	}

	args := append([]interface{}{next}, keyArgs...)
	args = append(args, s)
	if _, err := tx.Exec("UPDATE "+table+" SET sync_status = ? WHERE "+key+" AND sync_status = ?", args...); err != nil {
		return errors.Wrapf(err, "marking pushed row of %s clean", table)
	}
	res.Cleaned++

	return nil
}

// markPushed settles every pushed row and stamps the route
func markPushed(tx *database.DB, routeID int, o outbox, now int64, res *UploadResult) error {
	// votes and comments go first as purging a waypoint cascades to them
	for _, r := range o.ratings {
		key := "user_id = ? AND " + r.Kind.TargetColumn() + " = ? AND val = ?"
		if err := settle(tx, r.Kind.Table(), key, []interface{}{r.UserID, r.TargetID, r.Val}, r.SyncStatus, res); err != nil {
			return err
		}
	}
	for _, f := range o.favorites {
		if err := settle(tx, "route_favorites", "user_id = ? AND route_id = ?", []interface{}{f.UserID, f.RouteID}, f.SyncStatus, res); err != nil {
			return err
		}
	}
	for _, c := range o.comments {
		if err := settle(tx, "comments", "id = ? AND updated_at = ?", []interface{}{c.ID, c.UpdatedAt}, c.SyncStatus, res); err != nil {
			return err
		}
	}
	for _, w := range o.waypoints {
		if err := settle(tx, "waypoints", "id = ? AND updated_at = ?", []interface{}{w.ID, w.UpdatedAt}, w.SyncStatus, res); err != nil {
			return err
		}
	}
	if o.route != nil {
		if err := settle(tx, "routes", "id = ? AND updated_at = ?", []interface{}{o.route.ID, o.route.UpdatedAt}, o.route.SyncStatus, res); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("UPDATE routes SET last_synced_at = ? WHERE id = ?", now, routeID); err != nil {
		return errors.Wrap(err, "stamping route")
	}

	return nil
}
