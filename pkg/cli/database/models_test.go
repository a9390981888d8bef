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
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/status"
)

func intPtr(i int) *int {
	return &i
}

func mustInsertRoute(t *testing.T, db *DB, id int, slug string) Route {
	r := Route{ID: id, UserID: 1, Slug: slug, Name: slug, SyncStatus: status.Clean}
	if err := r.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting route"))
	}

	return r
}

func TestRouteUpsertKeepsChildren(t *testing.T) {
	db := InitTestMemoryDB(t)

	r := mustInsertRoute(t, db, 1, "ridge")
	w := Waypoint{ID: 10, RouteID: 1, UserID: 1, Name: "summit", SyncStatus: status.Clean}
	if err := w.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting waypoint"))
	}

	r.Name = "Ridge Loop"
	r.SyncStatus = status.Dirty
	if err := r.Upsert(db); err != nil {
		t.Fatal(errors.Wrap(err, "upserting route"))
	}

	got, err := GetRoute(db, 1)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting route"))
	}

	assert.Equal(t, got.Name, "Ridge Loop", "name mismatch")
	assert.Equal(t, got.SyncStatus, status.Dirty, "status mismatch")
	assert.Equal(t, MustCount(t, "counting waypoints", db, "waypoints", ""), 1, "upsert must not cascade")
}

func TestRouteExpungeCascades(t *testing.T) {
	db := InitTestMemoryDB(t)

	r := mustInsertRoute(t, db, 1, "ridge")
	MustExec(t, "preparing waypoint", db, "INSERT INTO waypoints (id, route_id, user_id, name, sync_status) VALUES (10, 1, 1, 'a', 'clean')")
	MustExec(t, "preparing comment", db, "INSERT INTO comments (id, user_id, kind, waypoint_id, content, sync_status) VALUES (20, 1, 'waypoint', 10, 'hi', 'clean')")
	MustExec(t, "preparing comment rating", db, "INSERT INTO comment_ratings (user_id, comment_id, val, sync_status) VALUES (2, 20, 1, 'clean')")
	MustExec(t, "preparing route rating", db, "INSERT INTO route_ratings (user_id, route_id, val, sync_status) VALUES (2, 1, -1, 'clean')")
	MustExec(t, "preparing gpx", db, "INSERT INTO gpx_segments (id, route_id, geometry) VALUES (30, 1, 'LINESTRING(0 0, 1 1)')")

	if err := r.Expunge(db); err != nil {
		t.Fatal(errors.Wrap(err, "expunging route"))
	}

	for _, table := range []string{"routes", "waypoints", "comments", "comment_ratings", "route_ratings", "gpx_segments"} {
		assert.Equal(t, MustCount(t, "counting "+table, db, table, ""), 0, table+" should be empty")
	}
}

func TestCommentKindConstraint(t *testing.T) {
	testCases := []struct {
		name       string
		kind       string
		waypointID *int
		routeID    *int
		ok         bool
	}{
		{name: "route comment", kind: CommentKindRoute, routeID: intPtr(1), ok: true},
		{name: "waypoint comment", kind: CommentKindWaypoint, waypointID: intPtr(10), ok: true},
		{name: "both targets", kind: CommentKindRoute, waypointID: intPtr(10), routeID: intPtr(1), ok: false},
		{name: "no target", kind: CommentKindRoute, ok: false},
		{name: "kind mismatch", kind: CommentKindWaypoint, routeID: intPtr(1), ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := InitTestMemoryDB(t)
			mustInsertRoute(t, db, 1, "ridge")
			MustExec(t, "preparing waypoint", db, "INSERT INTO waypoints (id, route_id, user_id, name, sync_status) VALUES (10, 1, 1, 'a', 'clean')")

			c := Comment{ID: 5, UserID: 1, Kind: tc.kind, WaypointID: tc.waypointID, RouteID: tc.routeID, Content: "hi", SyncStatus: status.New}
			err := c.Insert(db)

			assert.Equal(t, err == nil, tc.ok, "insert result mismatch")
			expected := 0
			if tc.ok {
				expected = 1
			}
			assert.Equal(t, MustCount(t, "counting comments", db, "comments", ""), expected, "comment count mismatch")
		})
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := InitTestMemoryDB(t)

	w := Waypoint{ID: 10, RouteID: 99, UserID: 1, Name: "orphan", SyncStatus: status.New}
	err := w.Insert(db)

	assert.NotEqual(t, err, nil, "inserting a waypoint of a missing route should fail")
}

func TestRatingRoundTrip(t *testing.T) {
	db := InitTestMemoryDB(t)
	mustInsertRoute(t, db, 1, "ridge")

	r := Rating{Kind: RatingRoute, UserID: 7, TargetID: 1, Val: 1, SyncStatus: status.New}
	if err := r.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting rating"))
	}

	r.Val = -1
	r.SyncStatus = status.Dirty
	if err := r.Update(db); err != nil {
		t.Fatal(errors.Wrap(err, "updating rating"))
	}

	got, err := GetRating(db, RatingRoute, 7, 1)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting rating"))
	}
	assert.Equal(t, got.Val, -1, "val mismatch")
	assert.Equal(t, got.SyncStatus, status.Dirty, "status mismatch")

	if err := r.Expunge(db); err != nil {
		t.Fatal(errors.Wrap(err, "expunging rating"))
	}

	_, err = GetRating(db, RatingRoute, 7, 1)
	assert.Equal(t, IsNotFound(err), true, "rating should be gone")
}

func TestSumRatingsIgnoresTombstones(t *testing.T) {
	db := InitTestMemoryDB(t)
	mustInsertRoute(t, db, 1, "ridge")

	MustExec(t, "preparing ratings", db, `INSERT INTO route_ratings (user_id, route_id, val, sync_status) VALUES
		(1, 1, 1, 'clean'), (2, 1, 1, 'new'), (3, 1, -1, 'dirty'), (4, 1, 1, 'deleted')`)

	total, err := SumRatings(db, RatingRoute, 1)
	if err != nil {
		t.Fatal(errors.Wrap(err, "summing"))
	}
	assert.Equal(t, total, 1, "total mismatch")

	ok, err := SetCachedRating(db, RatingRoute, 1, total)
	if err != nil {
		t.Fatal(errors.Wrap(err, "caching"))
	}
	assert.Equal(t, ok, true, "route should exist")

	ok, err = SetCachedRating(db, RatingRoute, 2, total)
	if err != nil {
		t.Fatal(errors.Wrap(err, "caching"))
	}
	assert.Equal(t, ok, false, "route 2 should not exist")
}

func TestListFiltersTombstones(t *testing.T) {
	db := InitTestMemoryDB(t)
	mustInsertRoute(t, db, 1, "ridge")

	MustExec(t, "preparing waypoints", db, `INSERT INTO waypoints (id, route_id, user_id, name, sync_status, created_at) VALUES
		(10, 1, 1, 'a', 'clean', 1), (11, 1, 1, 'b', 'deleted', 2), (12, 1, 1, 'c', 'new', 3)`)
	MustExec(t, "preparing comments", db, `INSERT INTO comments (id, user_id, kind, route_id, content, sync_status) VALUES
		(20, 1, 'route', 1, 'x', 'deleted'), (21, 1, 'route', 1, 'y', 'dirty')`)

	waypoints, err := ListWaypoints(db, 1)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing waypoints"))
	}
	assert.Equal(t, len(waypoints), 2, "waypoint count mismatch")
	assert.Equal(t, waypoints[0].ID, 10, "first waypoint mismatch")
	assert.Equal(t, waypoints[1].ID, 12, "second waypoint mismatch")

	comments, err := ListRouteComments(db, 1)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing comments"))
	}
	assert.Equal(t, len(comments), 1, "comment count mismatch")
	assert.Equal(t, comments[0].ID, 21, "comment mismatch")
}

func TestSystem(t *testing.T) {
	db := InitTestMemoryDB(t)

	if err := UpsertSystem(db, "session_token", "abc"); err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}
	if err := UpsertSystem(db, "session_token", "def"); err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}

	var val string
	if err := GetSystem(db, "session_token", &val); err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, val, "def", "value mismatch")

	if err := DeleteSystem(db, "session_token"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}
	err := GetSystem(db, "session_token", &val)
	assert.Equal(t, IsNotFound(err), true, "key should be gone")
}

func TestRunInTx(t *testing.T) {
	db := InitTestMemoryDB(t)

	err := RunInTx(db, func(tx *DB) error {
		mustInsertRoute(t, tx, 1, "ridge")
		return errors.New("boom")
	})
	assert.NotEqual(t, err, nil, "error should propagate")
	assert.Equal(t, MustCount(t, "counting routes", db, "routes", ""), 0, "insert should be rolled back")

	err = RunInTx(db, func(tx *DB) error {
		mustInsertRoute(t, tx, 2, "valley")
		return nil
	})
	assert.Equal(t, err, nil, "unexpected error")
	assert.Equal(t, MustCount(t, "counting routes", db, "routes", ""), 1, "insert should be committed")
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := InitTestMemoryDB(t)

	n, err := Migrate(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "migrating again"))
	}

	assert.Equal(t, n, 0, "no migration should be pending")
	assert.Equal(t, MustCount(t, "counting migrations", db, MigrationTableName, ""), 2, "migration record count mismatch")
}

func TestBeginOnTransaction(t *testing.T) {
	db := InitTestMemoryDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatal(errors.Wrap(err, "beginning"))
	}
	defer tx.Rollback()

	_, err = tx.Begin()
	assert.Equal(t, err, ErrNestedTx, "nested transaction should be refused")
}
