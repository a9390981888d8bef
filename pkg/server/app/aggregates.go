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

package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/log"
	"gorm.io/gorm"
)

// aggregate describes a cached rating column and the votes it sums
type aggregate struct {
	table       string
	ratingTable string
	column      string
}

var aggregates = []aggregate{
	{table: "routes", ratingTable: "route_ratings", column: "route_id"},
	{table: "waypoints", ratingTable: "waypoint_ratings", column: "waypoint_id"},
	{table: "comments", ratingTable: "comment_ratings", column: "comment_id"},
}

func (ag aggregate) sum() string {
	return fmt.Sprintf("COALESCE((SELECT SUM(val) FROM %s WHERE %s.%s = %s.id), 0)", ag.ratingTable, ag.ratingTable, ag.column, ag.table)
}

func sortedKeys(m map[int]bool) []int {
	ret := make([]int, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Ints(ret)

	return ret
}

// recomputeTouched refreshes the cached rating of the given targets
func recomputeTouched(tx *gorm.DB, t touched) error {
	ids := [][]int{sortedKeys(t.routes), sortedKeys(t.waypoints), sortedKeys(t.comments)}

	for i, ag := range aggregates {
		if len(ids[i]) == 0 {
			continue
		}

		q := fmt.Sprintf("UPDATE %s SET rating = %s WHERE id IN ?", ag.table, ag.sum())
		if err := tx.Exec(q, ids[i]).Error; err != nil {
			return errors.Wrapf(err, "recomputing ratings of %s", ag.table)
		}
	}

	return nil
}

// RecomputeAggregates rewrites every cached rating that drifted from the
// sum of its votes and returns the number of repaired rows
func (a *App) RecomputeAggregates(ctx context.Context) (int64, error) {
	var repaired int64

	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ag := range aggregates {
			q := fmt.Sprintf("UPDATE %s SET rating = %s WHERE rating <> %s", ag.table, ag.sum(), ag.sum())

			conn := tx.Exec(q)
			if err := conn.Error; err != nil {
				return errors.Wrapf(err, "repairing ratings of %s", ag.table)
			}
			repaired += conn.RowsAffected
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if repaired > 0 {
		log.WithFields(log.Fields{
			"repaired": repaired,
		}).Warn("repaired drifted ratings")
	}

	return repaired, nil
}
