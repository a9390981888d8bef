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

package testutils

import (
	"testing"

	"github.com/trailsync/trailsync/pkg/cli/database"
)

// Fixture ids
const (
	RouteID    = 42
	OwnerID    = 1
	WaypointID = 4201
	CommentID  = 4301
)

// SetupRoute inserts a synced route owned by OwnerID with one waypoint and
// one comment on the route
func SetupRoute(t *testing.T, db *database.DB) {
	database.MustExec(t, "setting up route", db, "INSERT INTO routes (id, user_id, slug, name, region, sync_status) VALUES (?, ?, ?, ?, ?, ?)", RouteID, OwnerID, "haute-route", "Haute Route", "Valais", "clean")
	database.MustExec(t, "setting up waypoint", db, "INSERT INTO waypoints (id, route_id, user_id, name, lat, lon, type, sync_status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", WaypointID, RouteID, OwnerID, "Cabane de Bertol", 46.0086, 7.5181, "hut", "clean")
	database.MustExec(t, "setting up comment", db, "INSERT INTO comments (id, user_id, kind, route_id, content, sync_status) VALUES (?, ?, ?, ?, ?, ?)", CommentID, OwnerID, "route", RouteID, "Ladders above the glacier", "clean")
}
