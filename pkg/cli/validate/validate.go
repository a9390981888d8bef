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

// Package validate checks user input before it reaches the local store
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/trailsync/trailsync/pkg/syncerr"
)

const (
	maxNameLength    = 120
	maxCommentLength = 4000
)

var regexSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// WaypointTypes lists the accepted waypoint type tags. An empty type is
// also accepted.
var WaypointTypes = []string{"summit", "water", "shelter", "viewpoint", "parking", "junction", "hazard", "other"}

func isMultiline(s string) bool {
	return strings.Contains(s, "\n") || strings.Contains(s, "\r")
}

func name(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return syncerr.NewValidation(field, "is empty")
	}
	if isMultiline(s) {
		return syncerr.NewValidation(field, "contains multiple lines")
	}
	if len(s) > maxNameLength {
		return syncerr.NewValidation(field, fmt.Sprintf("is longer than %d characters", maxNameLength))
	}

	return nil
}

// WaypointName validates the name of a waypoint
func WaypointName(s string) error {
	return name("name", s)
}

// RouteName validates the name of a route
func RouteName(s string) error {
	return name("name", s)
}

// Slug validates a route slug
func Slug(s string) error {
	if s == "" {
		return syncerr.NewValidation("slug", "is empty")
	}
	if !regexSlug.MatchString(s) {
		return syncerr.NewValidation("slug", "must contain lowercase letters, digits and single dashes")
	}

	return nil
}

// Coordinates validates a latitude and longitude in degrees
func Coordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return syncerr.NewValidation("lat", fmt.Sprintf("%f is out of range", lat))
	}
	if lon < -180 || lon > 180 {
		return syncerr.NewValidation("lon", fmt.Sprintf("%f is out of range", lon))
	}

	return nil
}

// WaypointType validates a waypoint type tag
func WaypointType(s string) error {
	if s == "" {
		return nil
	}

	for _, t := range WaypointTypes {
		if s == t {
			return nil
		}
	}

	return syncerr.NewValidation("type", fmt.Sprintf("unknown waypoint type '%s'", s))
}

// CommentContent validates the content of a comment
func CommentContent(s string) error {
	if strings.TrimSpace(s) == "" {
		return syncerr.NewValidation("content", "is empty")
	}
	if len(s) > maxCommentLength {
		return syncerr.NewValidation("content", fmt.Sprintf("is longer than %d characters", maxCommentLength))
	}

	return nil
}

// Vote validates the value of a rating
func Vote(val int) error {
	if val != 1 && val != -1 {
		return syncerr.NewValidation("val", fmt.Sprintf("must be 1 or -1, got %d", val))
	}

	return nil
}
