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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/utils/diff"
	"github.com/trailsync/trailsync/pkg/wire"
)

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

// Timestamp formats a unix nanosecond timestamp. Zero means never.
func Timestamp(ns int64) string {
	if ns == 0 {
		return "never"
	}

	return time.Unix(0, ns).Format(timeLayout)
}

func statusMark(s status.Status) string {
	if status.IsPending(s) {
		return log.ColorYellow.Sprintf("(%s)", s)
	}

	return ""
}

// RouteInfo prints a route
func RouteInfo(r database.Route, favorite bool) {
	log.Infof("route: %s %s\n", r.Name, statusMark(r.SyncStatus))
	log.Infof("route id: %d\n", r.ID)
	log.Infof("slug: %s\n", r.Slug)
	if r.Region != "" {
		log.Infof("region: %s\n", r.Region)
	}
	log.Infof("rating: %d\n", r.Rating)
	if favorite {
		log.Infof("favorite: yes\n")
	}
	log.Infof("last synced: %s\n", Timestamp(r.LastSyncedAt))
}

// WaypointInfo prints a waypoint as one line, followed by its description
func WaypointInfo(w database.Waypoint) {
	kind := ""
	if w.Type != "" {
		kind = fmt.Sprintf(" [%s]", w.Type)
	}

	log.Plainf("%s %s%s (%.5f, %.5f) %s %s\n", log.ColorBlue.Sprintf("(%d)", w.ID), w.Name, kind, w.Lat, w.Lon,
		log.ColorGray.Sprintf("%+d", w.Rating), statusMark(w.SyncStatus))
	if w.Description != "" {
		log.Plainf("    %s\n", w.Description)
	}
}

// CommentInfo prints a comment, indented under its target
func CommentInfo(c database.Comment, depth int) {
	edited := ""
	if c.Edited {
		edited = log.ColorGray.Sprint(" (edited)")
	}

	pad := strings.Repeat("  ", depth)
	log.Plainf("%s%s user %d%s %s %s\n", pad, log.ColorBlue.Sprintf("#%d", c.ID), c.UserID, edited,
		log.ColorGray.Sprintf("%+d", c.Rating), statusMark(c.SyncStatus))
	for _, line := range strings.Split(c.Content, "\n") {
		log.Plainf("%s  %s\n", pad, line)
	}
}

// PendingCounts prints the unpushed rows of a route
func PendingCounts(c database.PendingCounts) {
	if c.Total() == 0 {
		log.Successf("up to date\n")
		return
	}

	log.Warnf("%d unsynced changes\n", c.Total())
	if c.Route > 0 {
		log.Plainf("  route edits: %d\n", c.Route)
	}
	log.Plainf("  waypoints: %d\n", c.Waypoints)
	log.Plainf("  comments: %d\n", c.Comments)
	log.Plainf("  votes: %d\n", c.Ratings)
	log.Plainf("  favorites: %d\n", c.Favorites)
}

// RouteSummary prints an entry of the remote route listing
func RouteSummary(r wire.RouteSummary) {
	region := ""
	if r.Region != "" {
		region = log.ColorGray.Sprintf(" [%s]", r.Region)
	}

	log.Plainf("%s %s%s %s\n", log.ColorBlue.Sprintf("(%d)", r.ID), r.Name, region, log.ColorGray.Sprintf("%+d", r.Rating))
}

// Diff writes a line diff, marking removed lines with - and added lines with +
func Diff(w io.Writer, lines []diff.Line) {
	for _, l := range lines {
		switch l.Op {
		case diff.DiffDelete:
			fmt.Fprintln(w, log.ColorRed.Sprintf("- %s", l.Text))
		case diff.DiffInsert:
			fmt.Fprintln(w, log.ColorGreen.Sprintf("+ %s", l.Text))
		default:
			fmt.Fprintf(w, "  %s\n", l.Text)
		}
	}
}
