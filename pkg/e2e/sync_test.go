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

package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/client"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	cliDatabase "github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/operations"
	"github.com/trailsync/trailsync/pkg/cli/rating"
	"github.com/trailsync/trailsync/pkg/cli/reconcile"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/server/app"
	"github.com/trailsync/trailsync/pkg/server/controllers"
	"github.com/trailsync/trailsync/pkg/server/database"
	apitest "github.com/trailsync/trailsync/pkg/server/testutils"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
)

// testEnv is a sync server shared by the devices of a test
type testEnv struct {
	App    app.App
	Server *httptest.Server
	Owner  database.User
	Route  database.Route
}

// device is a client replica signed in as one user
type device struct {
	DB     *cliDatabase.DB
	Client *client.Client
	Engine *reconcile.Engine
	User   database.User
}

func setupTestEnv(t *testing.T) *testEnv {
	a := app.NewTest()
	a.DB = apitest.InitMemoryDB(t)

	server, err := controllers.NewServer(&a)
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing server"))
	}
	t.Cleanup(server.Close)

	owner := apitest.SetupUserData(a.DB, "owner", "pass1234")
	route, err := a.CreateRoute(owner.ID, "haute-route", "Haute Route", "Alps")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating route"))
	}

	return &testEnv{App: a, Server: server, Owner: owner, Route: route}
}

func (e *testEnv) newDevice(t *testing.T, user database.User) device {
	tok, _, err := e.App.Issuer.Issue(user)
	if err != nil {
		t.Fatal(errors.Wrap(err, "issuing token"))
	}
	cred := credential.Static(tok)

	db := cliDatabase.InitTestMemoryDB(t)
	cl := client.New(e.Server.URL+"/api", "test", nil, cred)

	return device{
		DB:     db,
		Client: cl,
		Engine: reconcile.NewEngine(db, cl, cred, clock.New()),
		User:   user,
	}
}

func (d device) mustReconcile(t *testing.T, routeID int) reconcile.ReconcileResult {
	res, err := d.Engine.Reconcile(context.Background(), routeID, reconcile.ReconcileOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	return res
}

func (d device) mustDownload(t *testing.T, routeID int) reconcile.DownloadResult {
	res, err := d.Engine.Download(context.Background(), routeID, reconcile.DownloadOptions{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "downloading"))
	}

	return res
}

func (d device) mustCreateWaypoint(t *testing.T, routeID int, name string) cliDatabase.Waypoint {
	w, err := operations.CreateWaypoint(d.DB, clock.New(), d.User.ID, operations.WaypointParams{
		RouteID: routeID,
		Name:    name,
		Lat:     45.97,
		Lon:     7.66,
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating waypoint"))
	}

	return w
}

func countServer(t *testing.T, e *testEnv, model interface{}, where string, args ...interface{}) int64 {
	var n int64
	conn := e.App.DB.Model(model)
	if where != "" {
		conn = conn.Where(where, args...)
	}
	apitest.MustExec(t, conn.Count(&n), "counting rows")

	return n
}

func TestSyncDownload(t *testing.T) {
	env := setupTestEnv(t)
	wp := apitest.SetupWaypointData(env.App.DB, env.Route.ID, env.Owner.ID, "Cabane des Vignettes")
	apitest.SetupRouteCommentData(env.App.DB, env.Route.ID, env.Owner.ID, "Start early")
	apitest.MustExec(t, env.App.DB.Create(&database.RouteRating{UserID: env.Owner.ID, RouteID: env.Route.ID, Val: 1}), "rating route")
	apitest.MustExec(t, env.App.DB.Model(&env.Route).Update("rating", 1), "caching rating")

	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	d := env.newDevice(t, alice)

	res := d.mustDownload(t, env.Route.ID)
	assert.Equal(t, res.Waypoints, 1, "waypoint count mismatch")
	assert.Equal(t, res.Comments, 1, "comment count mismatch")
	assert.Equal(t, res.Ratings, 1, "rating count mismatch")

	route, err := cliDatabase.GetRoute(d.DB, env.Route.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding local route"))
	}
	assert.Equal(t, route.Slug, "haute-route", "slug mismatch")
	assert.Equal(t, route.Rating, 1, "rating mismatch")
	assert.NotEqual(t, route.LastSyncedAt, int64(0), "last_synced_at should be set")

	local, err := cliDatabase.GetWaypoint(d.DB, wp.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding local waypoint"))
	}
	assert.Equal(t, local.Name, "Cabane des Vignettes", "waypoint name mismatch")

	pending, err := reconcile.Pending(d.DB, env.Route.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting pending"))
	}
	assert.Equal(t, pending.Total(), 0, "a fresh download has nothing to push")
}

func TestSyncAcrossDevices(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	bob := apitest.SetupUserData(env.App.DB, "bob", "pass1234")

	da := env.newDevice(t, alice)
	db := env.newDevice(t, bob)
	da.mustDownload(t, env.Route.ID)
	db.mustDownload(t, env.Route.ID)

	// alice works offline
	w := da.mustCreateWaypoint(t, env.Route.ID, "Col de l'Evêque")
	routeID := env.Route.ID
	if _, err := operations.CreateComment(da.DB, clock.New(), alice.ID, operations.CommentParams{
		Kind:    wire.CommentKindRoute,
		RouteID: &routeID,
		Content: "Crevasses near the col",
	}); err != nil {
		t.Fatal(errors.Wrap(err, "creating comment"))
	}
	if _, err := rating.Toggle(da.DB, cliDatabase.RatingRoute, env.Route.ID, alice.ID, 1); err != nil {
		t.Fatal(errors.Wrap(err, "rating route"))
	}
	if _, err := operations.ToggleFavorite(da.DB, alice.ID, env.Route.ID); err != nil {
		t.Fatal(errors.Wrap(err, "favoriting route"))
	}

	res := da.mustReconcile(t, env.Route.ID)
	assert.NotEqualf(t, res.Upload, (*reconcile.UploadResult)(nil), "upload should run")
	assert.Equal(t, res.Upload.Pushed, 4, "pushed mismatch")
	assert.Equal(t, res.Upload.Applied, 4, "applied mismatch")
	assert.Equal(t, res.Upload.Skipped, 0, "skipped mismatch")

	assert.Equal(t, countServer(t, env, &database.Waypoint{}, "id = ? AND user_id = ?", w.ID, alice.ID), int64(1), "waypoint should reach the server")
	assert.Equal(t, countServer(t, env, &database.Comment{}, "route_id = ?", env.Route.ID), int64(1), "comment should reach the server")
	assert.Equal(t, countServer(t, env, &database.RouteFavorite{}, "user_id = ?", alice.ID), int64(1), "favorite should reach the server")

	pending, err := reconcile.Pending(da.DB, env.Route.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting pending"))
	}
	assert.Equal(t, pending.Total(), 0, "alice should have nothing left to push")

	// bob picks the changes up
	bres := db.mustReconcile(t, env.Route.ID)
	assert.Equal(t, bres.Download.Waypoints, 1, "bob waypoint count mismatch")
	assert.Equal(t, bres.Download.Comments, 1, "bob comment count mismatch")

	route, err := cliDatabase.GetRoute(db.DB, env.Route.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding route"))
	}
	assert.Equal(t, route.Rating, 1, "bob should see alice's vote")

	// bob votes the other way and the totals converge
	if _, err := rating.Toggle(db.DB, cliDatabase.RatingRoute, env.Route.ID, bob.ID, -1); err != nil {
		t.Fatal(errors.Wrap(err, "rating route"))
	}
	db.mustReconcile(t, env.Route.ID)
	da.mustReconcile(t, env.Route.ID)

	var serverRoute database.Route
	apitest.MustExec(t, env.App.DB.First(&serverRoute, env.Route.ID), "finding server route")
	assert.Equal(t, serverRoute.Rating, 0, "server rating mismatch")

	for _, d := range []device{da, db} {
		r, err := cliDatabase.GetRoute(d.DB, env.Route.ID)
		if err != nil {
			t.Fatal(errors.Wrap(err, "finding route"))
		}
		assert.Equal(t, r.Rating, 0, "device rating mismatch")
	}
}

func TestSyncDeleteWaypoint(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	bob := apitest.SetupUserData(env.App.DB, "bob", "pass1234")

	da := env.newDevice(t, alice)
	db := env.newDevice(t, bob)
	da.mustDownload(t, env.Route.ID)

	w := da.mustCreateWaypoint(t, env.Route.ID, "Refuge")
	da.mustReconcile(t, env.Route.ID)

	db.mustDownload(t, env.Route.ID)
	if _, err := rating.Toggle(db.DB, cliDatabase.RatingWaypoint, w.ID, bob.ID, 1); err != nil {
		t.Fatal(errors.Wrap(err, "rating waypoint"))
	}
	db.mustReconcile(t, env.Route.ID)
	assert.Equal(t, countServer(t, env, &database.WaypointRating{}, "waypoint_id = ?", w.ID), int64(1), "bob's vote should reach the server")

	t.Run("only the author can delete", func(t *testing.T) {
		_, err := operations.DeleteWaypoint(db.DB, bob.ID, w.ID)
		assert.Equal(t, syncerr.IsNotOwner(err), true, "expected a not owner error")
	})

	if _, err := operations.DeleteWaypoint(da.DB, alice.ID, w.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting waypoint"))
	}
	res := da.mustReconcile(t, env.Route.ID)
	assert.Equal(t, res.Upload.Purged, 1, "the tombstone should be purged")

	assert.Equal(t, countServer(t, env, &database.Waypoint{}, "id = ?", w.ID), int64(0), "waypoint should be deleted on the server")
	assert.Equal(t, countServer(t, env, &database.WaypointRating{}, "waypoint_id = ?", w.ID), int64(0), "ratings should go with the waypoint")

	db.mustReconcile(t, env.Route.ID)
	_, err := cliDatabase.GetWaypoint(db.DB, w.ID)
	assert.Equal(t, cliDatabase.IsNotFound(err), true, "bob should lose the waypoint")
}

func TestSyncDownloadKeepsPendingWork(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")

	d := env.newDevice(t, alice)
	d.mustDownload(t, env.Route.ID)
	w := d.mustCreateWaypoint(t, env.Route.ID, "Bivouac")

	_, err := d.Engine.Download(context.Background(), env.Route.ID, reconcile.DownloadOptions{})
	assert.Equal(t, syncerr.IsPendingChanges(err), true, "download should refuse to discard pending work")

	local, err := cliDatabase.GetWaypoint(d.DB, w.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "finding waypoint"))
	}
	assert.Equal(t, local.Name, "Bivouac", "pending waypoint should survive")

	res, err := d.Engine.Download(context.Background(), env.Route.ID, reconcile.DownloadOptions{Force: true})
	if err != nil {
		t.Fatal(errors.Wrap(err, "forcing download"))
	}
	assert.Equal(t, res.Discarded, 1, "discarded mismatch")

	_, err = cliDatabase.GetWaypoint(d.DB, w.ID)
	assert.Equal(t, cliDatabase.IsNotFound(err), true, "forced download should drop the waypoint")
}

func TestSyncPushIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	d := env.newDevice(t, alice)

	cs := wire.ChangeSet{
		RouteID: env.Route.ID,
		Waypoints: []wire.WaypointChange{
			{ID: 424242, RouteID: env.Route.ID, Name: "Spring", SyncStatus: wire.StatusNew},
		},
		Ratings: wire.RatingChanges{
			Route: []wire.RatingChange{{TargetID: env.Route.ID, Rating: 1, SyncStatus: wire.StatusNew}},
		},
	}

	for i := 0; i < 2; i++ {
		if _, err := d.Client.PushChanges(context.Background(), cs); err != nil {
			t.Fatal(errors.Wrapf(err, "pushing attempt %d", i))
		}
	}

	assert.Equal(t, countServer(t, env, &database.Waypoint{}, "id = ?", 424242), int64(1), "waypoint count mismatch")
	assert.Equal(t, countServer(t, env, &database.RouteRating{}, "route_id = ?", env.Route.ID), int64(1), "rating count mismatch")

	var route database.Route
	apitest.MustExec(t, env.App.DB.First(&route, env.Route.ID), "finding route")
	assert.Equal(t, route.Rating, 1, "a retried vote should count once")
}

func TestSyncConflict(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	taken := apitest.SetupWaypointData(env.App.DB, env.Route.ID, env.Owner.ID, "Owner's hut")

	d := env.newDevice(t, alice)

	cs := wire.ChangeSet{
		RouteID: env.Route.ID,
		Waypoints: []wire.WaypointChange{
			{ID: 515151, RouteID: env.Route.ID, Name: "Fine", SyncStatus: wire.StatusNew},
			{ID: taken.ID, RouteID: env.Route.ID, Name: "Mine now", SyncStatus: wire.StatusNew},
		},
	}

	_, err := d.Client.PushChanges(context.Background(), cs)
	assert.Equal(t, syncerr.IsConflict(err), true, "expected a conflict")

	assert.Equal(t, countServer(t, env, &database.Waypoint{}, "id = ?", 515151), int64(0), "the change set should roll back")

	var w database.Waypoint
	apitest.MustExec(t, env.App.DB.First(&w, taken.ID), "finding waypoint")
	assert.Equal(t, w.Name, "Owner's hut", "waypoint should be untouched")
}

func TestSyncListRoutes(t *testing.T) {
	env := setupTestEnv(t)
	if _, err := env.App.CreateRoute(env.Owner.ID, "west-highland-way", "West Highland Way", "Scotland"); err != nil {
		t.Fatal(errors.Wrap(err, "creating route"))
	}

	d := env.newDevice(t, env.Owner)

	list, err := d.Client.ListRoutes(context.Background(), client.ListRoutesParams{Region: "alps"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing routes"))
	}

	assert.Equal(t, list.Total, int64(1), "total mismatch")
	assert.Equalf(t, len(list.Routes), 1, "route count mismatch")
	assert.Equal(t, list.Routes[0].Slug, "haute-route", "slug mismatch")

	_, err = d.Engine.Download(context.Background(), 9999, reconcile.DownloadOptions{})
	assert.Equal(t, syncerr.IsNotFound(err), true, "unknown route should be not found")
}

func TestSyncRejectsRotatedSecret(t *testing.T) {
	env := setupTestEnv(t)
	alice := apitest.SetupUserData(env.App.DB, "alice", "pass1234")
	d := env.newDevice(t, alice)

	env.App.Issuer.Secret = []byte("rotated-secret")

	_, err := d.Client.ListRoutes(context.Background(), client.ListRoutesParams{})
	var herr *client.HTTPError
	assert.Equalf(t, errors.As(err, &herr), true, "expected an http error")
	assert.Equal(t, herr.StatusCode, 401, "status code mismatch")
}
