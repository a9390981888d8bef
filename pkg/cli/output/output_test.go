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

package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/utils/diff"
)

func TestTimestamp(t *testing.T) {
	assert.Equal(t, Timestamp(0), "never", "zero timestamp mismatch")

	ts := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.Local).UnixNano()
	assert.Equal(t, Timestamp(ts), time.Unix(0, ts).Format(timeLayout), "timestamp mismatch")
}

func TestDiff(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	local := "route Ridge [alps]\nwaypoint 10 Hut (45.00000, 6.00000) : \n"
	remote := "route Ridge [alps]\nwaypoint 11 Lake (45.10000, 6.10000) : \n"

	var buf bytes.Buffer
	Diff(&buf, diff.Lines(local, remote))

	expected := "  route Ridge [alps]\n" +
		"- waypoint 10 Hut (45.00000, 6.00000) : \n" +
		"+ waypoint 11 Lake (45.10000, 6.10000) : \n"
	assert.Equal(t, buf.String(), expected, "diff output mismatch")
}
