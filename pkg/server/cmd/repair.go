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

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// repairCmd recomputes the cached ratings once, outside of the schedule
func repairCmd(args []string, out io.Writer) error {
	fs := setupFlagSet("repair", "trailsync-server repair")
	db := addDBFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	a, cleanup, err := setupAppWithDB(db.params())
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := a.RecomputeAggregates(context.Background())
	if err != nil {
		return errors.Wrap(err, "recomputing ratings")
	}

	fmt.Fprintf(out, "Repaired %d ratings\n", n)

	return nil
}
