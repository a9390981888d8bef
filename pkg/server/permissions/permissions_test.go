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

package permissions

import (
	"testing"

	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/server/database"
)

func TestEditRoute(t *testing.T) {
	owner := database.User{Model: database.Model{ID: 1}}
	other := database.User{Model: database.Model{ID: 2}}
	route := database.Route{UserID: 1, Slug: "ridge-loop", Name: "Ridge Loop"}

	t.Run("owner", func(t *testing.T) {
		assert.Equal(t, EditRoute(&owner, route), true, "result mismatch")
	})

	t.Run("non-owner", func(t *testing.T) {
		assert.Equal(t, EditRoute(&other, route), false, "result mismatch")
	})

	t.Run("guest", func(t *testing.T) {
		assert.Equal(t, EditRoute(nil, route), false, "result mismatch")
	})

	t.Run("orphan route", func(t *testing.T) {
		assert.Equal(t, EditRoute(&owner, database.Route{}), false, "result mismatch")
	})
}

func TestEditChildren(t *testing.T) {
	author := database.User{Model: database.Model{ID: 5}}
	other := database.User{Model: database.Model{ID: 6}}

	w := database.Waypoint{UserID: 5}
	c := database.Comment{UserID: 5}

	assert.Equal(t, EditWaypoint(&author, w), true, "waypoint author")
	assert.Equal(t, EditWaypoint(&other, w), false, "waypoint other")
	assert.Equal(t, EditWaypoint(nil, w), false, "waypoint guest")
	assert.Equal(t, EditComment(&author, c), true, "comment author")
	assert.Equal(t, EditComment(&other, c), false, "comment other")
	assert.Equal(t, EditComment(&author, database.Comment{}), false, "comment orphan")
}
