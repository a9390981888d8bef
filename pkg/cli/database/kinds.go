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

// RatingKind identifies one of the three parallel rating tables
type RatingKind string

const (
	// RatingRoute is a vote on a route
	RatingRoute RatingKind = "route"
	// RatingWaypoint is a vote on a waypoint
	RatingWaypoint RatingKind = "waypoint"
	// RatingComment is a vote on a comment
	RatingComment RatingKind = "comment"
)

// RatingKinds lists every rating kind
var RatingKinds = []RatingKind{RatingRoute, RatingWaypoint, RatingComment}

type ratingTable struct {
	table        string
	targetColumn string
	parentTable  string
}

// table names are only ever taken from this map, never from user input
var ratingTables = map[RatingKind]ratingTable{
	RatingRoute:    {table: "route_ratings", targetColumn: "route_id", parentTable: "routes"},
	RatingWaypoint: {table: "waypoint_ratings", targetColumn: "waypoint_id", parentTable: "waypoints"},
	RatingComment:  {table: "comment_ratings", targetColumn: "comment_id", parentTable: "comments"},
}

// Valid reports whether the kind is known
func (k RatingKind) Valid() bool {
	_, ok := ratingTables[k]
	return ok
}

// Table returns the name of the rating table
func (k RatingKind) Table() string {
	return ratingTables[k].table
}

// TargetColumn returns the column of the rating table referencing the target
func (k RatingKind) TargetColumn() string {
	return ratingTables[k].targetColumn
}

// ParentTable returns the table holding the rated rows and their cached total
func (k RatingKind) ParentTable() string {
	return ratingTables[k].parentTable
}
