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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
)

func validConfig() Config {
	return Config{
		Port:           "3000",
		DBDriver:       "sqlite",
		DBDSN:          "test.db",
		JWTSecret:      "secret",
		JWTTTL:         time.Hour,
		RepairSchedule: "@every 1h",
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		mutate      func(c *Config)
		expectedErr error
	}{
		{
			mutate:      func(c *Config) {},
			expectedErr: nil,
		},
		{
			mutate:      func(c *Config) { c.DBDriver = "postgres" },
			expectedErr: nil,
		},
		{
			mutate:      func(c *Config) { c.DBDSN = "" },
			expectedErr: ErrDBMissingDSN,
		},
		{
			mutate:      func(c *Config) { c.DBDriver = "mysql" },
			expectedErr: ErrDBDriverInvalid,
		},
		{
			mutate:      func(c *Config) { c.Port = "" },
			expectedErr: ErrPortInvalid,
		},
		{
			mutate:      func(c *Config) { c.JWTTTL = 0 },
			expectedErr: ErrJWTTTLInvalid,
		},
		{
			mutate:      func(c *Config) { c.RepairSchedule = "every hour" },
			expectedErr: ErrRepairScheduleInvalid,
		},
		{
			mutate:      func(c *Config) { c.RepairSchedule = "0 30 * * * *" },
			expectedErr: nil,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)

			err := validate(c)

			assert.Equal(t, errors.Cause(err), tc.expectedErr, "error mismatch")
		})
	}
}

func TestRequireSecret(t *testing.T) {
	c := validConfig()
	assert.Equal(t, c.RequireSecret(), nil, "error mismatch")

	c.JWTSecret = "  "
	assert.Equal(t, c.RequireSecret(), ErrJWTSecretMissing, "error mismatch")
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, EnvName(KeyDBDSN), "TRAILSYNC_DB_DSN", "env name mismatch")
	assert.Equal(t, EnvName(KeyAppEnv), "TRAILSYNC_APP_ENV", "env name mismatch")
	assert.Equal(t, EnvName(KeyRepairSchedule), "TRAILSYNC_REPAIR_SCHEDULE", "env name mismatch")
}

func writeEnvFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(errors.Wrap(err, "writing env file"))
	}

	return path
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New(Params{JWTSecret: "s", EnvFile: writeEnvFile(t, "")})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating config"))
		}

		assert.Equal(t, c.AppEnv, AppEnvProduction, "app env mismatch")
		assert.Equal(t, c.Port, "3001", "port mismatch")
		assert.Equal(t, c.DBDriver, "sqlite", "driver mismatch")
		assert.Equal(t, c.DBDSN, DefaultDBPath, "dsn mismatch")
		assert.Equal(t, c.JWTIssuer, "trailsync", "issuer mismatch")
		assert.Equal(t, c.JWTTTL, 30*24*time.Hour, "ttl mismatch")
		assert.Equal(t, c.LogLevel, "info", "log level mismatch")
		assert.Equal(t, c.RepairSchedule, "@every 1h", "schedule mismatch")
		assert.Equal(t, c.IsProd(), true, "should be production")
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		t.Setenv("TRAILSYNC_PORT", "4000")
		t.Setenv("TRAILSYNC_JWT_SECRET", "from-env")
		t.Setenv("TRAILSYNC_JWT_TTL", "2h")
		t.Setenv("TRAILSYNC_APP_ENV", "test")

		c, err := New(Params{EnvFile: writeEnvFile(t, "")})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating config"))
		}

		assert.Equal(t, c.Port, "4000", "port mismatch")
		assert.Equal(t, c.JWTSecret, "from-env", "secret mismatch")
		assert.Equal(t, c.JWTTTL, 2*time.Hour, "ttl mismatch")
		assert.Equal(t, c.AppEnv, "TEST", "app env mismatch")
		assert.Equal(t, c.IsProd(), false, "should not be production")
	})

	t.Run("params override env", func(t *testing.T) {
		t.Setenv("TRAILSYNC_PORT", "4000")
		t.Setenv("TRAILSYNC_DB_DRIVER", "postgres")

		c, err := New(Params{
			Port:      "5000",
			DBDriver:  "sqlite",
			DBDSN:     ":memory:",
			JWTSecret: "from-flag",
			EnvFile:   writeEnvFile(t, ""),
		})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating config"))
		}

		assert.Equal(t, c.Port, "5000", "port mismatch")
		assert.Equal(t, c.DBDriver, "sqlite", "driver mismatch")
		assert.Equal(t, c.DBDSN, ":memory:", "dsn mismatch")
		assert.Equal(t, c.JWTSecret, "from-flag", "secret mismatch")
	})

	t.Run("env file", func(t *testing.T) {
		t.Setenv("TRAILSYNC_PORT", "4000")

		path := writeEnvFile(t, "TRAILSYNC_JWT_SECRET=from-file\nTRAILSYNC_PORT=6000\nTRAILSYNC_LOG_LEVEL=debug\nUNRELATED=1\n")

		c, err := New(Params{EnvFile: path})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating config"))
		}

		assert.Equal(t, c.JWTSecret, "from-file", "secret mismatch")
		assert.Equal(t, c.Port, "4000", "environment should win over the file")
		assert.Equal(t, c.LogLevel, "debug", "log level mismatch")
	})

	t.Run("missing explicit env file", func(t *testing.T) {
		_, err := New(Params{JWTSecret: "s", EnvFile: filepath.Join(t.TempDir(), "nope.env")})
		assert.NotEqual(t, err, nil, "expected an error")
	})

	t.Run("missing secret", func(t *testing.T) {
		c, err := New(Params{EnvFile: writeEnvFile(t, "")})
		if err != nil {
			t.Fatal(errors.Wrap(err, "creating config"))
		}

		assert.Equal(t, c.RequireSecret(), ErrJWTSecretMissing, "error mismatch")
	})
}
