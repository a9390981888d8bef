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

package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/wire"
)

// The describe functions render a route as sorted text lines so that the
// local copy and a bundle can be compared with a line diff.

func routeLine(name, region string) string {
	return fmt.Sprintf("route %s [%s]", name, region)
}

func waypointLine(id int, name string, lat, lon float64, kind, description string) string {
	return fmt.Sprintf("waypoint %d %s (%.5f, %.5f) %s: %s", id, name, lat, lon, kind, oneLine(description))
}

func commentLine(id int, kind string, waypointID, routeID *int, content string) string {
	target := 0
	if kind == wire.CommentKindWaypoint && waypointID != nil {
		target = *waypointID
	} else if routeID != nil {
		target = *routeID
	}

	return fmt.Sprintf("comment %d on %s %d: %s", id, kind, target, oneLine(content))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func render(head string, lines []string) string {
	sort.Strings(lines)
	return head + "\n" + strings.Join(lines, "\n") + "\n"
}

// DescribeLocal renders the visible local copy of a route
func DescribeLocal(db *database.DB, routeID int) (string, error) {
	route, err := database.GetRoute(db, routeID)
	if database.IsNotFound(err) {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "finding route")
	}

	waypoints, err := database.ListWaypoints(db, routeID)
	if err != nil {
		return "", err
	}
	comments, err := database.ListRouteComments(db, routeID)
	if err != nil {
		return "", err
	}

	lines := []string{}
	for _, w := range waypoints {
		lines = append(lines, waypointLine(w.ID, w.Name, w.Lat, w.Lon, w.Type, w.Description))

		wc, err := database.ListWaypointComments(db, w.ID)
		if err != nil {
			return "", err
		}
		comments = append(comments, wc...)
	}
	for _, c := range comments {
		lines = append(lines, commentLine(c.ID, c.Kind, c.WaypointID, c.RouteID, c.Content))
	}

	return render(routeLine(route.Name, route.Region), lines), nil
}

// DescribeBundle renders a bundle the way DescribeLocal renders the local copy
func DescribeBundle(b wire.Bundle) string {
	kept := map[int]bool{}

	lines := []string{}
	for _, w := range b.Waypoints {
		if strings.TrimSpace(w.Name) == "" {
			continue
		}
		kept[w.ID] = true
		lines = append(lines, waypointLine(w.ID, w.Name, w.Lat, w.Lon, w.Type, w.Description))
	}
	for _, c := range b.Comments {
		if !keepComment(c, b.Route.ID, kept) {
			continue
		}
		lines = append(lines, commentLine(c.ID, c.Kind, c.WaypointID, c.RouteID, c.Content))
	}

	return render(routeLine(b.Route.Name, b.Route.Region), lines)
}
