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
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// User is a model for a user
type User struct {
	Model
	Username    string `gorm:"uniqueIndex;type:text;not null"`
	Password    string `gorm:"not null"`
	LastLoginAt *time.Time
}

// Route is a model for a route. Rating caches the sum of its votes.
type Route struct {
	Model
	UserID int    `gorm:"index;not null"`
	Slug   string `gorm:"uniqueIndex;type:text;not null"`
	Name   string `gorm:"not null"`
	Region string `gorm:"index"`
	Rating int    `gorm:"default:0"`
}

// GPXSegment is a serialized track segment of a route
type GPXSegment struct {
	ID       int    `gorm:"primaryKey"`
	RouteID  int    `gorm:"index;not null"`
	Name     string
	Geometry string `gorm:"type:text"`
}

// Waypoint is a model for a waypoint on a route
type Waypoint struct {
	Model
	RouteID     int    `gorm:"index;not null"`
	UserID      int    `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	Lat         float64
	Lon         float64
	Type        string
	Rating      int `gorm:"default:0"`
}

// Comment is a model for a comment on either a route or a waypoint
type Comment struct {
	Model
	UserID     int    `gorm:"index;not null"`
	Kind       string `gorm:"not null;check:comment_target,(waypoint_id IS NULL) <> (route_id IS NULL)"`
	WaypointID *int   `gorm:"index"`
	RouteID    *int   `gorm:"index"`
	Content    string `gorm:"type:text;not null"`
	Edited     bool   `gorm:"default:false"`
	Rating     int    `gorm:"default:0"`
}

// RouteRating is a vote of a user on a route
type RouteRating struct {
	UserID    int `gorm:"primaryKey;autoIncrement:false"`
	RouteID   int `gorm:"primaryKey;autoIncrement:false;index"`
	Val       int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WaypointRating is a vote of a user on a waypoint
type WaypointRating struct {
	UserID     int `gorm:"primaryKey;autoIncrement:false"`
	WaypointID int `gorm:"primaryKey;autoIncrement:false;index"`
	Val        int `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CommentRating is a vote of a user on a comment
type CommentRating struct {
	UserID    int `gorm:"primaryKey;autoIncrement:false"`
	CommentID int `gorm:"primaryKey;autoIncrement:false;index"`
	Val       int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RouteFavorite marks a route as a favorite of a user
type RouteFavorite struct {
	UserID    int `gorm:"primaryKey;autoIncrement:false"`
	RouteID   int `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
