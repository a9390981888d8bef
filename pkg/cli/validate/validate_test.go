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

package validate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

func TestWaypointName(t *testing.T) {
	testCases := []struct {
		input string
		ok    bool
	}{
		{input: "Summit cairn", ok: true},
		{input: "Lac d'Allos", ok: true},
		{input: "", ok: false},
		{input: "   ", ok: false},
		{input: "two\nlines", ok: false},
		{input: "carriage\rreturn", ok: false},
		{input: strings.Repeat("a", 120), ok: true},
		{input: strings.Repeat("a", 121), ok: false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("input %q", tc.input), func(t *testing.T) {
			err := WaypointName(tc.input)

			assert.Equal(t, err == nil, tc.ok, "result mismatch")
			if !tc.ok {
				assert.Equal(t, syncerr.IsValidation(err), true, "should be a validation error")
			}
		})
	}
}

func TestSlug(t *testing.T) {
	testCases := []struct {
		input string
		ok    bool
	}{
		{input: "ridge-loop", ok: true},
		{input: "gr20", ok: true},
		{input: "", ok: false},
		{input: "Ridge", ok: false},
		{input: "ridge--loop", ok: false},
		{input: "-ridge", ok: false},
		{input: "ridge loop", ok: false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("input %q", tc.input), func(t *testing.T) {
			assert.Equal(t, Slug(tc.input) == nil, tc.ok, "result mismatch")
		})
	}
}

func TestCoordinates(t *testing.T) {
	testCases := []struct {
		lat float64
		lon float64
		ok  bool
	}{
		{lat: 45.83, lon: 6.86, ok: true},
		{lat: -90, lon: -180, ok: true},
		{lat: 90, lon: 180, ok: true},
		{lat: 90.1, lon: 0, ok: false},
		{lat: 0, lon: -180.5, ok: false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%f,%f", tc.lat, tc.lon), func(t *testing.T) {
			assert.Equal(t, Coordinates(tc.lat, tc.lon) == nil, tc.ok, "result mismatch")
		})
	}
}

func TestWaypointType(t *testing.T) {
	assert.Equal(t, WaypointType(""), nil, "empty type should be accepted")
	assert.Equal(t, WaypointType("water"), nil, "known type should be accepted")
	assert.Equal(t, syncerr.IsValidation(WaypointType("pub")), true, "unknown type should be rejected")
}

func TestCommentContent(t *testing.T) {
	assert.Equal(t, CommentContent("great view"), nil, "content should be accepted")
	assert.Equal(t, syncerr.IsValidation(CommentContent(" \n\t")), true, "blank content should be rejected")
	assert.Equal(t, syncerr.IsValidation(CommentContent(strings.Repeat("x", 4001))), true, "long content should be rejected")
}

func TestVote(t *testing.T) {
	for _, val := range []int{1, -1} {
		assert.Equal(t, Vote(val), nil, fmt.Sprintf("%d should be accepted", val))
	}
	for _, val := range []int{0, 2, -2} {
		assert.Equal(t, syncerr.IsValidation(Vote(val)), true, fmt.Sprintf("%d should be rejected", val))
	}
}
