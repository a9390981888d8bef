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

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/trailsync/trailsync/pkg/server/log"
)

// DefaultRepairSchedule runs the rating repair every hour
const DefaultRepairSchedule = "@every 1h"

// RunRepairJob recomputes the cached ratings and logs the outcome
func (a *App) RunRepairJob() {
	n, err := a.RecomputeAggregates(context.Background())
	if err != nil {
		log.ErrorWrap(err, "repairing ratings")
		return
	}

	log.WithFields(log.Fields{
		"repaired": n,
	}).Debug("rating repair finished")
}

// NewScheduler returns a stopped scheduler running the background jobs
// on the given schedule. An empty schedule selects the default.
func (a *App) NewScheduler(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultRepairSchedule
	}

	c := cron.New()
	if err := c.AddFunc(schedule, a.RunRepairJob); err != nil {
		return nil, errors.Wrapf(err, "scheduling rating repair with '%s'", schedule)
	}

	return c, nil
}
