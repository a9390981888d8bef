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

// Package wire defines the JSON payloads exchanged between the trail client
// and the sync server: the route bundle served on download and the change
// set pushed on upload.
package wire

import (
	"time"
)

// Sync statuses that may appear in a change set. Clean rows are never pushed.
const (
	StatusNew     = "new"
	StatusDirty   = "dirty"
	StatusDeleted = "deleted"
)

// Comment kinds
const (
	CommentKindRoute    = "route"
	CommentKindWaypoint = "waypoint"
)

// Route is the remote representation of a route
type Route struct {
	ID        int       `json:"id" validate:"required"`
	UserID    int       `json:"user_id"`
	Slug      string    `json:"slug" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Region    string    `json:"region"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GPXSegment is a serialized track segment of a route
type GPXSegment struct {
	ID       int    `json:"id"`
	RouteID  int    `json:"route_id"`
	Name     string `json:"name"`
	Geometry string `json:"geometry"`
}

// Waypoint is the remote representation of a waypoint
type Waypoint struct {
	ID          int       `json:"id"`
	RouteID     int       `json:"route_id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Type        string    `json:"type"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is the remote representation of a comment. Exactly one of
// WaypointID and RouteID is set, as indicated by Kind.
type Comment struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	Kind       string    `json:"kind"`
	WaypointID *int      `json:"waypoint_id,omitempty"`
	RouteID    *int      `json:"route_id,omitempty"`
	Content    string    `json:"content"`
	Edited     bool      `json:"edited"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RouteFavorite marks a route as a favorite of a user
type RouteFavorite struct {
	UserID  int `json:"user_id"`
	RouteID int `json:"route_id"`
}

// Favorites groups favorites by target kind
type Favorites struct {
	Route []RouteFavorite `json:"route"`
}

// Rating is a single vote of a user on a target
type Rating struct {
	UserID   int `json:"user_id"`
	TargetID int `json:"target_id"`
	Val      int `json:"val"`
}

// Ratings groups the votes of a bundle by target kind
type Ratings struct {
	Route    []Rating `json:"route"`
	Waypoint []Rating `json:"waypoint"`
	Comment  []Rating `json:"comment"`
}

// Bundle is the full snapshot of one route and its children
type Bundle struct {
	Route     Route        `json:"route"`
	GPX       []GPXSegment `json:"gpx"`
	Waypoints []Waypoint   `json:"waypoints"`
	Comments  []Comment    `json:"comments"`
	Favorites Favorites    `json:"favorites"`
	Ratings   Ratings      `json:"ratings"`
}

// RouteChange is a locally authored route mutation
type RouteChange struct {
	ID         int    `json:"id" validate:"required"`
	Slug       string `json:"slug" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Region     string `json:"region"`
	SyncStatus string `json:"sync_status" validate:"required,oneof=new dirty deleted"`
}

// WaypointChange is a locally authored waypoint mutation
type WaypointChange struct {
	ID          int     `json:"id" validate:"required"`
	RouteID     int     `json:"route_id" validate:"required"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon         float64 `json:"lon" validate:"gte=-180,lte=180"`
	Type        string  `json:"type"`
	SyncStatus  string  `json:"sync_status" validate:"required,oneof=new dirty deleted"`
}

// CommentChange is a locally authored comment mutation
type CommentChange struct {
	ID         int    `json:"id" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=route waypoint"`
	WaypointID *int   `json:"waypoint_id,omitempty"`
	RouteID    *int   `json:"route_id,omitempty"`
	Content    string `json:"content"`
	Edited     bool   `json:"edited"`
	SyncStatus string `json:"sync_status" validate:"required,oneof=new dirty deleted"`
}

// RatingChange is a vote mutation. The voter is the authenticated user.
type RatingChange struct {
	TargetID   int    `json:"target_id" validate:"required"`
	Rating     int    `json:"rating" validate:"oneof=-1 1"`
	SyncStatus string `json:"sync_status" validate:"required,oneof=new dirty deleted"`
}

// RatingChanges groups vote mutations by target kind
type RatingChanges struct {
	Route    []RatingChange `json:"route" validate:"dive"`
	Waypoint []RatingChange `json:"waypoint" validate:"dive"`
	Comment  []RatingChange `json:"comment" validate:"dive"`
}

// FavoriteChange is a favorite mutation. The user is the authenticated user.
type FavoriteChange struct {
	RouteID    int    `json:"route_id" validate:"required"`
	SyncStatus string `json:"sync_status" validate:"required,oneof=new dirty deleted"`
}

// FavoriteChanges groups favorite mutations by target kind
type FavoriteChanges struct {
	Route []FavoriteChange `json:"route" validate:"dive"`
}

// ChangeSet is the payload of a push. It carries every non-clean row the
// client holds for one route.
type ChangeSet struct {
	RouteID   int              `json:"route_id" validate:"required"`
	Route     *RouteChange     `json:"route,omitempty"`
	Waypoints []WaypointChange `json:"waypoints" validate:"dive"`
	Comments  []CommentChange  `json:"comments" validate:"dive"`
	Ratings   RatingChanges    `json:"ratings"`
	Favorites FavoriteChanges  `json:"favorites"`
}

// Len returns the number of rows carried by the change set
func (c ChangeSet) Len() int {
	n := len(c.Waypoints) + len(c.Comments) + len(c.Favorites.Route)
	n += len(c.Ratings.Route) + len(c.Ratings.Waypoint) + len(c.Ratings.Comment)
	if c.Route != nil {
		n++
	}

	return n
}

// PushResponse is the response of a push
type PushResponse struct {
	Applied  int       `json:"applied"`
	Skipped  int       `json:"skipped"`
	SyncedAt time.Time `json:"synced_at"`
}

// RouteSummary is an entry of the route listing
type RouteSummary struct {
	ID        int       `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Rating    int       `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteList is the response of the route listing
type RouteList struct {
	Routes []RouteSummary `json:"routes"`
	Total  int64          `json:"total"`
}
