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

package dirs

import (
	"path/filepath"
	"testing"

	"github.com/trailsync/trailsync/pkg/assert"
)

func TestDefaultDirs(t *testing.T) {
	// registered first so it runs after the environment is restored
	t.Cleanup(Reload)

	t.Setenv("HOME", "/home/hiker")
	t.Setenv(envConfigHome, "")
	t.Setenv(envDataHome, "")
	t.Setenv(envCacheHome, "")
	Reload()

	testCases := []struct {
		got      string
		expected string
	}{
		{got: Home, expected: "/home/hiker"},
		{got: ConfigHome, expected: filepath.Join("/home/hiker", ".config")},
		{got: DataHome, expected: filepath.Join("/home/hiker", ".local", "share")},
		{got: CacheHome, expected: filepath.Join("/home/hiker", ".cache")},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.got, tc.expected, "result mismatch")
	}
}

func TestCustomDirs(t *testing.T) {
	testCases := []struct {
		envKey   string
		envVal   string
		got      *string
		expected string
	}{
		{
			envKey:   envConfigHome,
			envVal:   "/srv/custom/config",
			got:      &ConfigHome,
			expected: "/srv/custom/config",
		},
		{
			envKey:   envDataHome,
			envVal:   "/srv/custom/data",
			got:      &DataHome,
			expected: "/srv/custom/data",
		},
		{
			envKey:   envCacheHome,
			envVal:   "/srv/custom/cache",
			got:      &CacheHome,
			expected: "/srv/custom/cache",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.envKey, func(t *testing.T) {
			t.Cleanup(Reload)
			t.Setenv(tc.envKey, tc.envVal)
			Reload()

			assert.Equal(t, *tc.got, tc.expected, "result mismatch")
		})
	}
}
