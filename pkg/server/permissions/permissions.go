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

// Package permissions decides what a user may do to shared rows
package permissions

import (
	"github.com/trailsync/trailsync/pkg/server/database"
)

// EditRoute checks if the given user can edit the given route
func EditRoute(user *database.User, route database.Route) bool {
	if user == nil {
		return false
	}
	if route.UserID == 0 {
		return false
	}

	return route.UserID == user.ID
}

// EditWaypoint checks if the given user authored the given waypoint
func EditWaypoint(user *database.User, w database.Waypoint) bool {
	if user == nil || w.UserID == 0 {
		return false
	}

	return w.UserID == user.ID
}

// EditComment checks if the given user authored the given comment
func EditComment(user *database.User, c database.Comment) bool {
	if user == nil || c.UserID == 0 {
		return false
	}

	return c.UserID == user.ID
}
