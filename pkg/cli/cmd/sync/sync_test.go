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

package sync

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/utils/diff"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
)

func TestPreview(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	database.MustExec(t, "preparing route", db, "INSERT INTO routes (id, user_id, slug, name, region, sync_status) VALUES (1, 1, 'ridge', 'Ridge', 'alps', 'clean')")
	database.MustExec(t, "preparing waypoints", db, `INSERT INTO waypoints (id, route_id, user_id, name, lat, lon, sync_status) VALUES
		(10, 1, 1, 'Hut', 45, 6, 'clean'), (11, 1, 1, 'My spring', 45.5, 6.5, 'new')`)

	b := wire.Bundle{
		Route:     wire.Route{ID: 1, UserID: 1, Slug: "ridge", Name: "Ridge", Region: "alps"},
		Waypoints: []wire.Waypoint{{ID: 10, RouteID: 1, UserID: 1, Name: "Hut", Lat: 45, Lon: 6}},
	}

	lines, err := Preview(db, b)
	if err != nil {
		t.Fatal(errors.Wrap(err, "previewing"))
	}

	assert.Equal(t, diff.Changed(lines), true, "the local waypoint should show up")

	var deleted []string
	for _, l := range lines {
		if l.Op == diff.DiffDelete {
			deleted = append(deleted, l.Text)
		}
	}
	assert.DeepEqual(t, deleted, []string{"waypoint 11 My spring (45.50000, 6.50000) : "}, "discarded lines mismatch")
}

func TestPreviewUnchanged(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	database.MustExec(t, "preparing route", db, "INSERT INTO routes (id, user_id, slug, name, region, sync_status) VALUES (1, 1, 'ridge', 'Ridge', '', 'clean')")

	lines, err := Preview(db, wire.Bundle{Route: wire.Route{ID: 1, Slug: "ridge", Name: "Ridge"}})
	if err != nil {
		t.Fatal(errors.Wrap(err, "previewing"))
	}

	assert.Equal(t, diff.Changed(lines), false, "nothing should differ")
}

func TestPendingMessage(t *testing.T) {
	testCases := []struct {
		name     string
		authors  []int
		pullOnly bool
		expected string
	}{
		{
			name:     "own changes on pull",
			authors:  []int{1},
			pullOnly: true,
			expected: "route 3 has unsynced local changes. Run 'trail sync 3' without --pull-only to push them, or add --force to discard them",
		},
		{
			name:     "own changes edited during the push",
			authors:  []int{1},
			expected: "route 3 changed while it was being pushed. Run 'trail sync 3' again",
		},
		{
			name:     "changes of other accounts",
			authors:  []int{1, 7, 9},
			expected: "route 3 has unsynced changes made by another account on this device (user 7, 9). Log in as that account and run 'trail sync 3', or run 'trail sync 3 --pull-only --force' to discard them",
		},
		{
			name:     "changes of other accounts on pull",
			authors:  []int{7},
			pullOnly: true,
			expected: "route 3 has unsynced changes made by another account on this device (user 7). Log in as that account and run 'trail sync 3', or run 'trail sync 3 --pull-only --force' to discard them",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			perr := &syncerr.PendingChangesError{RouteID: 3, Count: 2, Authors: tc.authors}

			assert.Equal(t, pendingMessage(perr, 1, tc.pullOnly), tc.expected, "message mismatch")
		})
	}
}

func TestConfirmDiscardSkipsPromptWithYes(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	database.MustExec(t, "preparing route", db, "INSERT INTO routes (id, user_id, slug, name, region, sync_status) VALUES (1, 1, 'ridge', 'Ridge', 'alps', 'clean')")

	yesFlag = true
	defer func() { yesFlag = false }()

	released := false
	confirm := confirmDiscard(db, func() { released = true })

	err := confirm(wire.Bundle{Route: wire.Route{ID: 1, Slug: "ridge", Name: "Ridge", Region: "alps"}}, database.PendingCounts{Waypoints: 1})
	if err != nil {
		t.Fatal(errors.Wrap(err, "confirming"))
	}

	assert.Equal(t, released, false, "the interrupt handler should be kept without a prompt")
}
