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

// Package config resolves the configuration of the sync server. Values
// come from flags, then TRAILSYNC_ environment variables, then an optional
// .env file, then defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/spf13/viper"
	"github.com/trailsync/trailsync/pkg/dirs"
	"github.com/trailsync/trailsync/pkg/server/database"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBDir is the default directory name for the server data
	DefaultDBDir = "trailsync"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultEnvFile is read when present
	DefaultEnvFile = ".env"

	envPrefix = "TRAILSYNC"
)

// Keys of the configuration values
const (
	KeyAppEnv         = "app_env"
	KeyPort           = "port"
	KeyDBDriver       = "db.driver"
	KeyDBDSN          = "db.dsn"
	KeyJWTSecret      = "jwt.secret"
	KeyJWTIssuer      = "jwt.issuer"
	KeyJWTTTL         = "jwt.ttl"
	KeyLogLevel       = "log.level"
	KeyRepairSchedule = "repair.schedule"
)

var keys = []string{
	KeyAppEnv, KeyPort, KeyDBDriver, KeyDBDSN, KeyJWTSecret,
	KeyJWTIssuer, KeyJWTTTL, KeyLogLevel, KeyRepairSchedule,
}

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.DataHome, DefaultDBDir, DefaultDBFilename)
)

var (
	// ErrDBMissingDSN is an error for an incomplete configuration missing the database dsn
	ErrDBMissingDSN = errors.New("DB DSN is empty")
	// ErrDBDriverInvalid is an error for an unsupported database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrJWTSecretMissing is an error for a configuration without a token signing secret
	ErrJWTSecretMissing = errors.New("JWT secret is empty")
	// ErrJWTTTLInvalid is an error for a non-positive token lifetime
	ErrJWTTTLInvalid = errors.New("Invalid JWT TTL")
	// ErrRepairScheduleInvalid is an error for a schedule cron cannot parse
	ErrRepairScheduleInvalid = errors.New("Invalid repair schedule")
)

// EnvName returns the environment variable holding the given key
func EnvName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// NewViper returns a viper instance with defaults and env bindings configured
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAppEnv, AppEnvProduction)
	v.SetDefault(KeyPort, "3001")
	v.SetDefault(KeyDBDriver, database.DriverSQLite)
	v.SetDefault(KeyDBDSN, DefaultDBPath)
	v.SetDefault(KeyJWTIssuer, "trailsync")
	v.SetDefault(KeyJWTTTL, 30*24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRepairSchedule, "@every 1h")

	return v
}

// loadEnvFile layers the TRAILSYNC_ values of a .env file over the defaults.
// The process environment still takes precedence. A missing file is not an
// error unless it was asked for explicitly.
func loadEnvFile(v *viper.Viper, path string, required bool) error {
	if path == "" {
		path = DefaultEnvFile
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) && !required {
			return nil
		}
		return errors.Wrapf(err, "reading env file '%s'", path)
	}

	for _, key := range keys {
		if val, ok := env[EnvName(key)]; ok {
			v.SetDefault(key, val)
		}
	}

	return nil
}

// Config is an application configuration
type Config struct {
	AppEnv         string
	Port           string
	DBDriver       string
	DBDSN          string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	LogLevel       string
	RepairSchedule string
}

// Params are the configuration parameters for creating a new Config.
// Non-empty values override the environment.
type Params struct {
	AppEnv         string
	Port           string
	DBDriver       string
	DBDSN          string
	JWTSecret      string
	JWTIssuer      string
	LogLevel       string
	RepairSchedule string
	// EnvFile is the .env file to read. It defaults to DefaultEnvFile in
	// the working directory and is skipped when absent.
	EnvFile string
}

func (p Params) overrides() map[string]string {
	return map[string]string{
		KeyAppEnv:         p.AppEnv,
		KeyPort:           p.Port,
		KeyDBDriver:       p.DBDriver,
		KeyDBDSN:          p.DBDSN,
		KeyJWTSecret:      p.JWTSecret,
		KeyJWTIssuer:      p.JWTIssuer,
		KeyLogLevel:       p.LogLevel,
		KeyRepairSchedule: p.RepairSchedule,
	}
}

// New constructs and returns a new validated config
func New(p Params) (Config, error) {
	v := NewViper()
	if err := loadEnvFile(v, p.EnvFile, p.EnvFile != ""); err != nil {
		return Config{}, err
	}

	for key, val := range p.overrides() {
		if val != "" {
			v.Set(key, val)
		}
	}

	return Load(v)
}

// Load reads a validated config from the given viper instance
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		AppEnv:         strings.ToUpper(v.GetString(KeyAppEnv)),
		Port:           v.GetString(KeyPort),
		DBDriver:       strings.ToLower(v.GetString(KeyDBDriver)),
		DBDSN:          v.GetString(KeyDBDSN),
		JWTSecret:      v.GetString(KeyJWTSecret),
		JWTIssuer:      v.GetString(KeyJWTIssuer),
		JWTTTL:         v.GetDuration(KeyJWTTTL),
		LogLevel:       v.GetString(KeyLogLevel),
		RepairSchedule: v.GetString(KeyRepairSchedule),
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// RequireSecret checks that tokens can be signed. Commands that only
// touch the database run without a secret.
func (c Config) RequireSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrJWTSecretMissing
	}

	return nil
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.DBDriver != database.DriverSQLite && c.DBDriver != database.DriverPostgres {
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}
	if c.DBDSN == "" {
		return ErrDBMissingDSN
	}
	if c.JWTTTL <= 0 {
		return ErrJWTTTLInvalid
	}
	if _, err := cron.Parse(c.RepairSchedule); err != nil {
		return errors.Wrapf(ErrRepairScheduleInvalid, "'%s': %s", c.RepairSchedule, err.Error())
	}

	return nil
}
