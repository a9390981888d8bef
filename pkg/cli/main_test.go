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
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/testutils"
	"github.com/trailsync/trailsync/pkg/cli/utils"
)

var binaryName = "test-trail"

// setupTestEnv creates a unique test directory for parallel test execution
func setupTestEnv(t *testing.T) (string, testutils.RunTrailCmdOptions) {
	testDir := t.TempDir()
	opts := testutils.RunTrailCmdOptions{
		Env: []string{
			fmt.Sprintf("HOME=%s", testDir),
			fmt.Sprintf("XDG_CONFIG_HOME=%s", testDir),
			fmt.Sprintf("XDG_DATA_HOME=%s", testDir),
			fmt.Sprintf("XDG_CACHE_HOME=%s", testDir),
		},
	}
	return testDir, opts
}

// withDB opens the database of the test env, runs fn and closes it so that
// the binary is the only writer while it runs
func withDB(t *testing.T, testDir string, fn func(db *database.DB)) {
	db, err := database.Open(filepath.Join(testDir, consts.DirName, consts.DBFileName))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	defer db.Close()

	fn(db)
}

// setupRoute initializes the env and seeds a synced route, signed in as userID
func setupRoute(t *testing.T, userID int) (string, testutils.RunTrailCmdOptions) {
	testDir, opts := setupTestEnv(t)
	testutils.RunTrailCmd(t, opts, binaryName, "version")

	withDB(t, testDir, func(db *database.DB) {
		testutils.SetupRoute(t, db)
		if userID != 0 {
			testutils.Login(t, db, userID)
		}
	})

	return testDir, opts
}

func TestMain(m *testing.M) {
	if err := exec.Command("go", "build", "-o", binaryName).Run(); err != nil {
		log.Print(errors.Wrap(err, "building a binary").Error())
		os.Exit(1)
	}

	code := m.Run()
	os.Remove(binaryName)
	os.Exit(code)
}

func TestParseDBPath(t *testing.T) {
	testCases := []struct {
		args     []string
		expected string
	}{
		{args: []string{"sync", "42"}, expected: ""},
		{args: []string{"--dbPath", "/tmp/a.db", "sync", "42"}, expected: "/tmp/a.db"},
		{args: []string{"sync", "42", "--dbPath=/tmp/b.db"}, expected: "/tmp/b.db"},
		{args: []string{"sync", "--dbPath"}, expected: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, parseDBPath(tc.args), tc.expected, fmt.Sprintf("mismatch for %v", tc.args))
	}
}

func TestInit(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	testutils.RunTrailCmd(t, opts, binaryName, "version")

	ok, err := utils.FileExists(filepath.Join(testDir, consts.DirName, consts.ConfigFilename))
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking if config exists"))
	}
	assert.Equal(t, ok, true, "config file was not initialized")

	withDB(t, testDir, func(db *database.DB) {
		var deviceID, lastSyncAt string
		database.MustScan(t, "scanning device id", db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemDeviceID), &deviceID)
		database.MustScan(t, "scanning last sync", db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemLastSyncAt), &lastSyncAt)

		assert.NotEqual(t, deviceID, "", "device id should be generated")
		assert.Equal(t, lastSyncAt, "0", "last sync mismatch")
	})
}

func TestRequiresLogin(t *testing.T) {
	_, opts := setupRoute(t, 0)

	out := testutils.RunTrailCmdErr(t, opts, binaryName, "waypoint", "add", "42", "--name", "Spring", "--lat", "46", "--lon", "7.5")
	assert.Equal(t, strings.Contains(out, "not logged in"), true, "should ask to log in")
}

func TestAddWaypoint(t *testing.T) {
	testDir, opts := setupRoute(t, 2)

	testutils.RunTrailCmd(t, opts, binaryName, "waypoint", "add", "42", "--name", "Spring", "--lat", "46.01", "--lon", "7.52", "--type", "water")

	withDB(t, testDir, func(db *database.DB) {
		assert.Equal(t, database.MustCount(t, "counting waypoints", db, "waypoints", "route_id = ? AND user_id = ? AND name = ? AND sync_status = ?", 42, 2, "Spring", "new"), 1, "new waypoint mismatch")
	})
}

func TestEditWaypoint(t *testing.T) {
	testDir, opts := setupRoute(t, testutils.OwnerID)

	testutils.RunTrailCmd(t, opts, binaryName, "waypoint", "edit", fmt.Sprint(testutils.WaypointID), "--name", "Bertol hut")

	withDB(t, testDir, func(db *database.DB) {
		var name, syncStatus string
		database.MustScan(t, "scanning waypoint", db.QueryRow("SELECT name, sync_status FROM waypoints WHERE id = ?", testutils.WaypointID), &name, &syncStatus)

		assert.Equal(t, name, "Bertol hut", "name mismatch")
		assert.Equal(t, syncStatus, "dirty", "sync status mismatch")
	})
}

func TestRemoveWaypoint(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		testDir, opts := setupRoute(t, testutils.OwnerID)

		testutils.MustWaitTrailCmd(t, opts, testutils.Confirm(testutils.PromptRemoveWaypoint), binaryName, "waypoint", "rm", fmt.Sprint(testutils.WaypointID))

		withDB(t, testDir, func(db *database.DB) {
			var syncStatus string
			database.MustScan(t, "scanning waypoint", db.QueryRow("SELECT sync_status FROM waypoints WHERE id = ?", testutils.WaypointID), &syncStatus)
			assert.Equal(t, syncStatus, "deleted", "a synced waypoint should become a tombstone")
		})
	})

	t.Run("cancelled", func(t *testing.T) {
		testDir, opts := setupRoute(t, testutils.OwnerID)

		testutils.MustWaitTrailCmd(t, opts, testutils.Cancel(testutils.PromptRemoveWaypoint), binaryName, "waypoint", "rm", fmt.Sprint(testutils.WaypointID))

		withDB(t, testDir, func(db *database.DB) {
			var syncStatus string
			database.MustScan(t, "scanning waypoint", db.QueryRow("SELECT sync_status FROM waypoints WHERE id = ?", testutils.WaypointID), &syncStatus)
			assert.Equal(t, syncStatus, "clean", "waypoint should be untouched")
		})
	})
}

func TestAddCommentPiped(t *testing.T) {
	testDir, opts := setupRoute(t, 2)

	testutils.MustWaitTrailCmd(t, opts, testutils.PipeContent("Snow bridge collapsed\nbelow the col"), binaryName, "comment", "add", "--waypoint", fmt.Sprint(testutils.WaypointID))

	withDB(t, testDir, func(db *database.DB) {
		var content, kind, syncStatus string
		database.MustScan(t, "scanning comment", db.QueryRow("SELECT content, kind, sync_status FROM comments WHERE user_id = ?", 2), &content, &kind, &syncStatus)

		assert.Equal(t, content, "Snow bridge collapsed\nbelow the col", "content mismatch")
		assert.Equal(t, kind, "waypoint", "kind mismatch")
		assert.Equal(t, syncStatus, "new", "sync status mismatch")
	})
}

func TestVote(t *testing.T) {
	testDir, opts := setupRoute(t, 2)

	testutils.RunTrailCmd(t, opts, binaryName, "vote", "route", "42", "up")

	withDB(t, testDir, func(db *database.DB) {
		var total int
		database.MustScan(t, "scanning rating", db.QueryRow("SELECT rating FROM routes WHERE id = 42"), &total)
		assert.Equal(t, total, 1, "aggregate mismatch")
		assert.Equal(t, database.MustCount(t, "counting votes", db, "route_ratings", "user_id = 2 AND val = 1 AND sync_status = 'new'"), 1, "vote mismatch")
	})

	testutils.RunTrailCmd(t, opts, binaryName, "vote", "route", "42", "up")

	withDB(t, testDir, func(db *database.DB) {
		var total int
		database.MustScan(t, "scanning rating", db.QueryRow("SELECT rating FROM routes WHERE id = 42"), &total)
		assert.Equal(t, total, 0, "voting twice should clear the vote")
	})
}

func TestFavorite(t *testing.T) {
	testDir, opts := setupRoute(t, 2)

	out := testutils.RunTrailCmd(t, opts, binaryName, "favorite", "42")
	assert.Equal(t, strings.Contains(out, "added route 42"), true, "should add favorite")

	withDB(t, testDir, func(db *database.DB) {
		assert.Equal(t, database.MustCount(t, "counting favorites", db, "route_favorites", "user_id = 2 AND route_id = 42"), 1, "favorite mismatch")
	})
}

func TestEditRouteNotOwner(t *testing.T) {
	testDir, opts := setupRoute(t, 2)

	out := testutils.RunTrailCmdErr(t, opts, binaryName, "route", "edit", "42", "--name", "Renamed")
	assert.Equal(t, strings.Contains(out, "does not own"), true, "should refuse a route of another user")

	withDB(t, testDir, func(db *database.DB) {
		var name string
		database.MustScan(t, "scanning route", db.QueryRow("SELECT name FROM routes WHERE id = 42"), &name)
		assert.Equal(t, name, "Haute Route", "route should be untouched")
	})
}

func TestStatus(t *testing.T) {
	_, opts := setupRoute(t, 2)

	testutils.RunTrailCmd(t, opts, binaryName, "vote", "waypoint", fmt.Sprint(testutils.WaypointID), "down")
	out := testutils.RunTrailCmd(t, opts, binaryName, "status", "42")

	assert.Equal(t, strings.Contains(out, "Haute Route"), true, "status should name the route")
}
