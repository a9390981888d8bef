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

// Package config reads and writes the trail config file
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"gopkg.in/yaml.v2"
)

// Config holds trail configuration
type Config struct {
	APIEndpoint string `yaml:"apiEndpoint"`
	// Editor is the command used to compose comments
	Editor string `yaml:"editor"`
	// RequestsPerSecond caps the rate of requests sent to the server
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
}

// GetPath returns the path to the trail config file
func GetPath(ctx context.TrailCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.DirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.TrailCtx) (Config, error) {
	var ret Config

	b, err := os.ReadFile(GetPath(ctx))
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.TrailCtx, cf Config) error {
	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	if err := os.WriteFile(GetPath(ctx), b, 0644); err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
