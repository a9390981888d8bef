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
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/server/app"
	"github.com/trailsync/trailsync/pkg/server/config"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/server/token"
	"gorm.io/gorm"
)

func initDB(cfg config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(db); err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, errors.Wrap(err, "running migrations")
	}

	return db, nil
}

func initApp(cfg config.Config) (app.App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return app.App{}, errors.Wrap(err, "initializing database")
	}

	c := clock.New()

	return app.App{
		DB:     db,
		Clock:  c,
		Issuer: token.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, c),
		AppEnv: cfg.AppEnv,
		Port:   cfg.Port,
	}, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// printFlags prints flags with -- prefix for consistency with the client
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage != "" {
			fmt.Printf("    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Printf(" (default: %s)", f.DefValue)
			}
			fmt.Println()
		}
	})
}

// setupFlagSet creates a FlagSet with standard usage format
func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Printf(`Usage:
  %s [flags]

Flags:
`, usageCmd)
		printFlags(fs)
	}
	return fs
}

// requireString validates that a required string flag is not empty
func requireString(value, fieldName string) error {
	if value == "" {
		return errors.Errorf("%s is required", fieldName)
	}

	return nil
}

// dbFlags are the flags selecting the database, shared by every command
// that opens it
type dbFlags struct {
	driver  *string
	dsn     *string
	envFile *string
}

func addDBFlags(fs *flag.FlagSet) dbFlags {
	return dbFlags{
		driver:  fs.String("dbDriver", "", "Database driver: sqlite or postgres (env: TRAILSYNC_DB_DRIVER, default: sqlite)"),
		dsn:     fs.String("dbDSN", "", "Database file path or postgres DSN (env: TRAILSYNC_DB_DSN, default: $XDG_DATA_HOME/trailsync/server.db)"),
		envFile: fs.String("envFile", "", "Path to a .env file (default: .env when present)"),
	}
}

func (f dbFlags) params() config.Params {
	return config.Params{
		DBDriver: *f.driver,
		DBDSN:    *f.dsn,
		EnvFile:  *f.envFile,
	}
}

// setupAppWithDB creates config, initializes app, and returns cleanup function
func setupAppWithDB(p config.Params) (*app.App, func(), error) {
	cfg, err := config.New(p)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading configuration")
	}

	a, err := initApp(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &a, func() { closeDB(a.DB) }, nil
}
