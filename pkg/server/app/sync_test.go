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

package app

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/server/testutils"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
	"gorm.io/gorm"
)

func intPtr(i int) *int {
	return &i
}

type syncFixture struct {
	app   App
	db    *gorm.DB
	alice database.User
	bob   database.User
	route database.Route
}

func setupSync(t *testing.T) syncFixture {
	db := testutils.InitMemoryDB(t)
	alice := testutils.SetupUserData(db, "alice", "somepassword")
	bob := testutils.SetupUserData(db, "bob", "somepassword")
	route := testutils.SetupRouteData(db, alice.ID, "haute-route", "Haute Route", "Valais")

	a := NewTest()
	a.DB = db

	return syncFixture{app: a, db: db, alice: alice, bob: bob, route: route}
}

func (f syncFixture) mustApply(t *testing.T, user database.User, cs wire.ChangeSet) ApplyResult {
	res, err := f.app.ApplyChangeSet(context.Background(), user, cs)
	if err != nil {
		t.Fatal(errors.Wrap(err, "applying change set"))
	}

	return res
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var n int64
	conn := db.Model(model)
	if query != "" {
		conn = conn.Where(query, args...)
	}
	testutils.MustExec(t, conn.Count(&n), "counting rows")

	return n
}

func newContent(routeID int) wire.ChangeSet {
	return wire.ChangeSet{
		RouteID: routeID,
		Waypoints: []wire.WaypointChange{
			{ID: 5001, RouteID: routeID, Name: "Spring", Lat: 46.0, Lon: 7.5, Type: "water", SyncStatus: wire.StatusNew},
		},
		Comments: []wire.CommentChange{
			{ID: 6001, Kind: wire.CommentKindWaypoint, WaypointID: intPtr(5001), Content: "Cold water", SyncStatus: wire.StatusNew},
			{ID: 6002, Kind: wire.CommentKindRoute, RouteID: intPtr(routeID), Content: "Steep start", SyncStatus: wire.StatusNew},
		},
		Ratings: wire.RatingChanges{
			Route:    []wire.RatingChange{{TargetID: routeID, Rating: 1, SyncStatus: wire.StatusNew}},
			Waypoint: []wire.RatingChange{{TargetID: 5001, Rating: -1, SyncStatus: wire.StatusNew}},
			Comment:  []wire.RatingChange{{TargetID: 6002, Rating: 1, SyncStatus: wire.StatusNew}},
		},
		Favorites: wire.FavoriteChanges{
			Route: []wire.FavoriteChange{{RouteID: routeID, SyncStatus: wire.StatusNew}},
		},
	}
}

func TestApplyChangeSetInserts(t *testing.T) {
	f := setupSync(t)

	res := f.mustApply(t, f.bob, newContent(f.route.ID))
	assert.Equal(t, res.Applied, 7, "applied mismatch")
	assert.Equal(t, res.Skipped, 0, "skipped mismatch")
	assert.Equal(t, res.SyncedAt.Equal(f.app.Clock.Now()), true, "synced at mismatch")

	var w database.Waypoint
	testutils.MustExec(t, f.db.First(&w, 5001), "finding waypoint")
	assert.Equal(t, w.UserID, f.bob.ID, "waypoint owner should be the pushing user")
	assert.Equal(t, w.RouteID, f.route.ID, "waypoint route mismatch")
	assert.Equal(t, w.Rating, -1, "waypoint rating mismatch")

	var c database.Comment
	testutils.MustExec(t, f.db.First(&c, 6002), "finding comment")
	assert.Equal(t, c.Rating, 1, "comment rating mismatch")
	assert.Equal(t, c.Kind, wire.CommentKindRoute, "comment kind mismatch")

	var r database.Route
	testutils.MustExec(t, f.db.First(&r, f.route.ID), "finding route")
	assert.Equal(t, r.Rating, 1, "route rating mismatch")

	assert.Equal(t, count(t, f.db, &database.RouteFavorite{}, "user_id = ?", f.bob.ID), int64(1), "favorite count mismatch")
}

func TestApplyChangeSetIdempotent(t *testing.T) {
	f := setupSync(t)
	cs := newContent(f.route.ID)

	f.mustApply(t, f.bob, cs)
	f.mustApply(t, f.bob, cs)

	assert.Equal(t, count(t, f.db, &database.Waypoint{}, ""), int64(1), "waypoint count mismatch")
	assert.Equal(t, count(t, f.db, &database.Comment{}, ""), int64(2), "comment count mismatch")
	assert.Equal(t, count(t, f.db, &database.RouteRating{}, ""), int64(1), "route rating count mismatch")
	assert.Equal(t, count(t, f.db, &database.RouteFavorite{}, ""), int64(1), "favorite count mismatch")

	var r database.Route
	testutils.MustExec(t, f.db.First(&r, f.route.ID), "finding route")
	assert.Equal(t, r.Rating, 1, "route rating should not double count")
}

func TestApplyChangeSetConflict(t *testing.T) {
	f := setupSync(t)
	f.mustApply(t, f.bob, newContent(f.route.ID))

	cs := wire.ChangeSet{
		RouteID: f.route.ID,
		Comments: []wire.CommentChange{
			{ID: 6100, Kind: wire.CommentKindRoute, RouteID: intPtr(f.route.ID), Content: "Fresh", SyncStatus: wire.StatusNew},
		},
		Waypoints: []wire.WaypointChange{
			{ID: 5001, RouteID: f.route.ID, Name: "Not my spring", SyncStatus: wire.StatusNew},
		},
	}

	_, err := f.app.ApplyChangeSet(context.Background(), f.alice, cs)
	assert.Equal(t, syncerr.IsConflict(err), true, "expected a conflict error")

	var w database.Waypoint
	testutils.MustExec(t, f.db.First(&w, 5001), "finding waypoint")
	assert.Equal(t, w.Name, "Spring", "waypoint should be untouched")
	assert.Equal(t, count(t, f.db, &database.Comment{}, "id = ?", 6100), int64(0), "the whole change set should roll back")
}

func TestApplyChangeSetScopedToOwner(t *testing.T) {
	f := setupSync(t)
	f.mustApply(t, f.bob, newContent(f.route.ID))

	cs := wire.ChangeSet{
		RouteID: f.route.ID,
		Waypoints: []wire.WaypointChange{
			{ID: 5001, RouteID: f.route.ID, Name: "Renamed", SyncStatus: wire.StatusDirty},
		},
		Comments: []wire.CommentChange{
			{ID: 6002, Kind: wire.CommentKindRoute, RouteID: intPtr(f.route.ID), SyncStatus: wire.StatusDeleted},
		},
	}

	res := f.mustApply(t, f.alice, cs)
	assert.Equal(t, res.Applied, 0, "applied mismatch")
	assert.Equal(t, res.Skipped, 2, "skipped mismatch")

	var w database.Waypoint
	testutils.MustExec(t, f.db.First(&w, 5001), "finding waypoint")
	assert.Equal(t, w.Name, "Spring", "waypoint of another user should be untouched")
	assert.Equal(t, count(t, f.db, &database.Comment{}, "id = ?", 6002), int64(1), "comment of another user should survive")

	res = f.mustApply(t, f.bob, cs)
	assert.Equal(t, res.Applied, 2, "owner applied mismatch")

	testutils.MustExec(t, f.db.First(&w, 5001), "finding waypoint")
	assert.Equal(t, w.Name, "Renamed", "owner edit should apply")
	assert.Equal(t, count(t, f.db, &database.Comment{}, "id = ?", 6002), int64(0), "owner delete should apply")
	assert.Equal(t, count(t, f.db, &database.CommentRating{}, "comment_id = ?", 6002), int64(0), "ratings of the deleted comment should go")
}

func TestApplyChangeSetDeleteWaypoint(t *testing.T) {
	f := setupSync(t)
	f.mustApply(t, f.bob, newContent(f.route.ID))

	// alice votes on bob's waypoint comment
	f.mustApply(t, f.alice, wire.ChangeSet{
		RouteID: f.route.ID,
		Ratings: wire.RatingChanges{
			Comment: []wire.RatingChange{{TargetID: 6001, Rating: 1, SyncStatus: wire.StatusNew}},
		},
	})

	f.mustApply(t, f.bob, wire.ChangeSet{
		RouteID: f.route.ID,
		Waypoints: []wire.WaypointChange{
			{ID: 5001, RouteID: f.route.ID, SyncStatus: wire.StatusDeleted},
		},
	})

	assert.Equal(t, count(t, f.db, &database.Waypoint{}, "id = ?", 5001), int64(0), "waypoint should be deleted")
	assert.Equal(t, count(t, f.db, &database.Comment{}, "id = ?", 6001), int64(0), "waypoint comments should be deleted")
	assert.Equal(t, count(t, f.db, &database.WaypointRating{}, "waypoint_id = ?", 5001), int64(0), "waypoint ratings should be deleted")
	assert.Equal(t, count(t, f.db, &database.CommentRating{}, "comment_id = ?", 6001), int64(0), "comment ratings should be deleted")
	assert.Equal(t, count(t, f.db, &database.Comment{}, "id = ?", 6002), int64(1), "route comments should survive")
}

func TestApplyChangeSetRatings(t *testing.T) {
	f := setupSync(t)
	f.mustApply(t, f.bob, newContent(f.route.ID))

	testCases := []struct {
		name     string
		user     database.User
		change   wire.RatingChange
		expected int
	}{
		{
			name:     "second voter",
			user:     f.alice,
			change:   wire.RatingChange{TargetID: f.route.ID, Rating: 1, SyncStatus: wire.StatusNew},
			expected: 2,
		},
		{
			name:     "flip",
			user:     f.bob,
			change:   wire.RatingChange{TargetID: f.route.ID, Rating: -1, SyncStatus: wire.StatusDirty},
			expected: 0,
		},
		{
			name:     "undo",
			user:     f.alice,
			change:   wire.RatingChange{TargetID: f.route.ID, Rating: 1, SyncStatus: wire.StatusDeleted},
			expected: -1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f.mustApply(t, tc.user, wire.ChangeSet{
				RouteID: f.route.ID,
				Ratings: wire.RatingChanges{Route: []wire.RatingChange{tc.change}},
			})

			var r database.Route
			testutils.MustExec(t, f.db.First(&r, f.route.ID), "finding route")
			assert.Equal(t, r.Rating, tc.expected, "route rating mismatch")
		})
	}
}

func TestApplyChangeSetSkipsForeignTargets(t *testing.T) {
	f := setupSync(t)
	other := testutils.SetupRouteData(f.db, f.alice.ID, "tour-du-mont-blanc", "Tour du Mont Blanc", "Alps")
	foreign := testutils.SetupWaypointData(f.db, other.ID, f.alice.ID, "Refuge")

	res := f.mustApply(t, f.bob, wire.ChangeSet{
		RouteID: f.route.ID,
		Comments: []wire.CommentChange{
			{ID: 6200, Kind: wire.CommentKindWaypoint, WaypointID: intPtr(foreign.ID), Content: "Wrong route", SyncStatus: wire.StatusNew},
			{ID: 6201, Kind: wire.CommentKindWaypoint, WaypointID: intPtr(424242), Content: "Gone", SyncStatus: wire.StatusNew},
		},
		Ratings: wire.RatingChanges{
			Waypoint: []wire.RatingChange{{TargetID: foreign.ID, Rating: 1, SyncStatus: wire.StatusNew}},
		},
	})

	assert.Equal(t, res.Applied, 0, "applied mismatch")
	assert.Equal(t, res.Skipped, 3, "skipped mismatch")
	assert.Equal(t, count(t, f.db, &database.Comment{}, ""), int64(0), "no comment should be written")
	assert.Equal(t, count(t, f.db, &database.WaypointRating{}, ""), int64(0), "no rating should be written")
}

func TestApplyChangeSetRoute(t *testing.T) {
	f := setupSync(t)

	change := &wire.RouteChange{ID: f.route.ID, Slug: f.route.Slug, Name: "Haute Route (summer)", Region: "Valais", SyncStatus: wire.StatusDirty}

	t.Run("not owner", func(t *testing.T) {
		_, err := f.app.ApplyChangeSet(context.Background(), f.bob, wire.ChangeSet{RouteID: f.route.ID, Route: change})
		assert.Equal(t, syncerr.IsNotOwner(err), true, "expected a not owner error")
	})

	t.Run("owner", func(t *testing.T) {
		res := f.mustApply(t, f.alice, wire.ChangeSet{RouteID: f.route.ID, Route: change})
		assert.Equal(t, res.Applied, 1, "applied mismatch")

		var r database.Route
		testutils.MustExec(t, f.db.First(&r, f.route.ID), "finding route")
		assert.Equal(t, r.Name, "Haute Route (summer)", "name mismatch")
		assert.Equal(t, r.Slug, "haute-route", "slug should not change")
	})
}

func TestApplyChangeSetErrors(t *testing.T) {
	f := setupSync(t)

	t.Run("missing route", func(t *testing.T) {
		_, err := f.app.ApplyChangeSet(context.Background(), f.bob, wire.ChangeSet{RouteID: 9999})
		assert.Equal(t, syncerr.IsNotFound(err), true, "expected a not found error")
	})

	t.Run("invalid change set", func(t *testing.T) {
		cs := newContent(f.route.ID)
		cs.Comments[0].RouteID = intPtr(f.route.ID)

		_, err := f.app.ApplyChangeSet(context.Background(), f.bob, cs)
		assert.Equal(t, syncerr.IsValidation(err), true, "expected a validation error")
		assert.Equal(t, count(t, f.db, &database.Waypoint{}, ""), int64(0), "nothing should be written")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.app.ApplyChangeSet(ctx, f.bob, newContent(f.route.ID))
		assert.NotEqual(t, err, nil, "expected an error")
		assert.Equal(t, count(t, f.db, &database.Waypoint{}, ""), int64(0), "nothing should be written")
	})
}
