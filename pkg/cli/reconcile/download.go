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
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/rating"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
)

// DownloadOptions alters the behavior of a download
type DownloadOptions struct {
	// Force discards local changes that have not been pushed
	Force bool
	// Clock stamps last_synced_at. Defaults to the real clock.
	Clock clock.Clock
	// Confirm is called by Engine.Download with the fetched bundle before a
	// forced download discards unsynced rows. An error aborts the download.
	Confirm func(b wire.Bundle, pending database.PendingCounts) error
}

// DownloadResult reports what a download wrote
type DownloadResult struct {
	RouteID          int
	GPX              int
	Waypoints        int
	Comments         int
	Ratings          int
	Favorites        int
	SkippedWaypoints int
	SkippedComments  int
	SkippedRatings   int
	Discarded        int
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

// DownloadRouteBundle replaces the local copy of a route with the bundle.
// All writes happen in one transaction. Unless opts.Force is set, a route
// holding unpushed rows is left untouched and a PendingChangesError is
// returned.
func DownloadRouteBundle(db *database.DB, b wire.Bundle, opts DownloadOptions) (DownloadResult, error) {
	if err := wire.ValidateBundle(b); err != nil {
		return DownloadResult{}, err
	}

	c := opts.Clock
	if c == nil {
		c = clock.New()
	}

	var ret DownloadResult
	err := database.RunInTx(db, func(tx *database.DB) error {
		res, err := applyBundle(tx, b, opts.Force, c.Now().UnixNano())
		if err != nil {
			return err
		}

		ret = res
		return nil
	})
	if err != nil {
		return DownloadResult{}, err
	}

	return ret, nil
}

func applyBundle(tx *database.DB, b wire.Bundle, force bool, now int64) (DownloadResult, error) {
	routeID := b.Route.ID
	ret := DownloadResult{RouteID: routeID}

	pending, err := database.CountPending(tx, routeID)
	if err != nil {
		return ret, errors.Wrap(err, "counting pending changes")
	}
	if pending.Total() > 0 && !force {
		authors, err := database.PendingAuthors(tx, routeID)
		if err != nil {
			return ret, errors.Wrap(err, "finding the authors of pending changes")
		}

		return ret, &syncerr.PendingChangesError{RouteID: routeID, Count: pending.Total(), Authors: authors}
	}
	ret.Discarded = pending.Total()

	if err := database.DeleteRouteChildren(tx, routeID); err != nil {
		return ret, errors.Wrap(err, "clearing the route")
	}

	route := database.Route{
		ID:           routeID,
		UserID:       b.Route.UserID,
		Slug:         b.Route.Slug,
		Name:         b.Route.Name,
		Region:       b.Route.Region,
		Rating:       b.Route.Rating,
		CreatedAt:    unixNano(b.Route.CreatedAt),
		UpdatedAt:    unixNano(b.Route.UpdatedAt),
		SyncStatus:   status.Clean,
		LastSyncedAt: now,
	}
	if err := route.Upsert(tx); err != nil {
		return ret, errors.Wrap(err, "upserting route")
	}

	if ret.Favorites, err = insertFavorites(tx, routeID, b.Favorites.Route); err != nil {
		return ret, err
	}

	for _, g := range b.GPX {
		seg := database.GPXSegment{ID: g.ID, RouteID: routeID, Name: g.Name, Geometry: g.Geometry}
		if err := seg.Insert(tx); err != nil {
			return ret, errors.Wrap(err, "inserting gpx segment")
		}
		ret.GPX++
	}

	waypoints := map[int]bool{}
	for _, w := range b.Waypoints {
		if strings.TrimSpace(w.Name) == "" {
			log.Debug("skipping waypoint %d without a name\n", w.ID)
			ret.SkippedWaypoints++
			continue
		}

		row := database.Waypoint{
			ID:          w.ID,
			RouteID:     routeID,
			UserID:      w.UserID,
			Name:        w.Name,
			Description: w.Description,
			Lat:         w.Lat,
			Lon:         w.Lon,
			Type:        w.Type,
			Rating:      w.Rating,
			CreatedAt:   unixNano(w.CreatedAt),
			UpdatedAt:   unixNano(w.UpdatedAt),
			SyncStatus:  status.Clean,
		}
		if err := row.Upsert(tx); err != nil {
			return ret, errors.Wrap(err, "upserting waypoint")
		}

		waypoints[w.ID] = true
		ret.Waypoints++
	}

	comments := map[int]bool{}
	for _, cm := range b.Comments {
		if !keepComment(cm, routeID, waypoints) {
			log.Debug("skipping comment %d\n", cm.ID)
			ret.SkippedComments++
			continue
		}

		row := database.Comment{
			ID:         cm.ID,
			UserID:     cm.UserID,
			Kind:       cm.Kind,
			WaypointID: cm.WaypointID,
			RouteID:    cm.RouteID,
			Content:    cm.Content,
			Edited:     cm.Edited,
			Rating:     cm.Rating,
			CreatedAt:  unixNano(cm.CreatedAt),
			UpdatedAt:  unixNano(cm.UpdatedAt),
			SyncStatus: status.Clean,
		}
		if err := row.Upsert(tx); err != nil {
			return ret, errors.Wrap(err, "upserting comment")
		}

		comments[cm.ID] = true
		ret.Comments++
	}

	groups := []struct {
		kind    database.RatingKind
		ratings []wire.Rating
		keep    func(int) bool
	}{
		{kind: database.RatingRoute, ratings: b.Ratings.Route, keep: func(id int) bool { return id == routeID }},
		{kind: database.RatingWaypoint, ratings: b.Ratings.Waypoint, keep: func(id int) bool { return waypoints[id] }},
		{kind: database.RatingComment, ratings: b.Ratings.Comment, keep: func(id int) bool { return comments[id] }},
	}
	for _, g := range groups {
		inserted, skipped, err := insertRatings(tx, g.kind, g.ratings, g.keep)
		if err != nil {
			return ret, err
		}
		ret.Ratings += inserted
		ret.SkippedRatings += skipped
	}

	if err := recomputeRoute(tx, routeID, waypoints, comments); err != nil {
		return ret, errors.Wrap(err, "recomputing aggregates")
	}

	return ret, nil
}

func keepComment(c wire.Comment, routeID int, waypoints map[int]bool) bool {
	if strings.TrimSpace(c.Content) == "" {
		return false
	}
	if err := wire.ValidateComment(c.Kind, c.WaypointID, c.RouteID); err != nil {
		return false
	}

	if c.Kind == wire.CommentKindRoute {
		return *c.RouteID == routeID
	}

	return waypoints[*c.WaypointID]
}

func insertFavorites(tx *database.DB, routeID int, favorites []wire.RouteFavorite) (int, error) {
	seen := map[int]bool{}

	for _, f := range favorites {
		if f.RouteID != routeID || f.UserID == 0 || seen[f.UserID] {
			continue
		}

		row := database.RouteFavorite{UserID: f.UserID, RouteID: routeID, SyncStatus: status.Clean}
		if err := row.Insert(tx); err != nil {
			return 0, errors.Wrap(err, "inserting favorite")
		}
		seen[f.UserID] = true
	}

	return len(seen), nil
}

type ratingKey struct {
	userID   int
	targetID int
}

func insertRatings(tx *database.DB, kind database.RatingKind, ratings []wire.Rating, keep func(int) bool) (int, int, error) {
	seen := map[ratingKey]bool{}
	var skipped int

	for _, r := range ratings {
		key := ratingKey{userID: r.UserID, targetID: r.TargetID}
		if !keep(r.TargetID) || (r.Val != 1 && r.Val != -1) || r.UserID == 0 || seen[key] {
			skipped++
			continue
		}

		row := database.Rating{Kind: kind, UserID: r.UserID, TargetID: r.TargetID, Val: r.Val, SyncStatus: status.Clean}
		if err := row.Insert(tx); err != nil {
			return 0, 0, errors.Wrapf(err, "inserting %s rating", kind)
		}
		seen[key] = true
	}

	return len(seen), skipped, nil
}

// recomputeRoute rewrites the cached aggregate of the route and of every
// downloaded waypoint and comment
func recomputeRoute(tx *database.DB, routeID int, waypoints, comments map[int]bool) error {
	if _, err := rating.Recompute(tx, database.RatingRoute, routeID); err != nil {
		return err
	}
	for id := range waypoints {
		if _, err := rating.Recompute(tx, database.RatingWaypoint, id); err != nil {
			return err
		}
	}
	for id := range comments {
		if _, err := rating.Recompute(tx, database.RatingComment, id); err != nil {
			return err
		}
	}

	return nil
}
