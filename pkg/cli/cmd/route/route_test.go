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

package route

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/trailsync/trailsync/pkg/assert"
)

func parse(t *testing.T, args ...string) *pflag.FlagSet {
	f := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	f.StringP("name", "n", "", "")
	f.StringP("region", "r", "", "")
	if err := f.Parse(args); err != nil {
		t.Fatal(errors.Wrap(err, "parsing flags"))
	}

	return f
}

func TestEditFromFlags(t *testing.T) {
	e, err := EditFromFlags(parse(t, "-r", ""))
	if err != nil {
		t.Fatal(errors.Wrap(err, "building edit"))
	}

	assert.Equal(t, e.Name, (*string)(nil), "name should be left alone")
	assert.NotEqualf(t, e.Region, (*string)(nil), "region should be set")
	assert.Equal(t, *e.Region, "", "clearing the region should be allowed")
}

func TestEditFromFlagsNothing(t *testing.T) {
	_, err := EditFromFlags(parse(t))
	assert.NotEqual(t, err, nil, "an edit without flags should fail")
}
