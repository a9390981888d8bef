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

// Package infra sets up the local infrastructure of trail: directories,
// the config file, the local database and the runtime context
package infra

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/client"
	"github.com/trailsync/trailsync/pkg/cli/config"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/ui"
	"github.com/trailsync/trailsync/pkg/cli/utils"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/dirs"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
)

// RunEFunc is a function type of trail commands
type RunEFunc func(*cobra.Command, []string) error

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.TrailCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitDirs(paths); err != nil {
		return context.TrailCtx{}, errors.Wrap(err, "creating the trail dirs")
	}

	dbPath := customDBPath
	if dbPath == "" {
		dbPath = context.DBPath(paths)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return context.TrailCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.TrailCtx{
		Paths:   paths,
		Version: versionTag,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the trail environment and returns a new context.
// A non-empty apiEndpoint overrides the configured one without rewriting
// the config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.TrailCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	n, err := database.Migrate(ctx.DB)
	if err != nil {
		return nil, errors.Wrap(err, "running migration")
	}
	log.Debug("applied %d migrations\n", n)

	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx, apiEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.TrailCtx, apiEndpoint string) (context.TrailCtx, error) {
	var deviceID string
	if err := database.GetSystem(ctx.DB, consts.SystemDeviceID, &deviceID); err != nil {
		return ctx, errors.Wrap(err, "finding device id")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}

	endpoint := cf.APIEndpoint
	if apiEndpoint != "" {
		endpoint = apiEndpoint
	}

	ret := context.TrailCtx{
		Paths:       ctx.Paths,
		Version:     ctx.Version,
		DB:          ctx.DB,
		DeviceID:    deviceID,
		APIEndpoint: endpoint,
		Editor:      cf.Editor,
		Clock:       clock.New(),
		HTTPClient:  client.NewRateLimitedHTTPClient(cf.RequestsPerSecond),
		Credential:  credential.StoredProvider{DB: ctx.DB},
	}

	return ret, nil
}

func initSystemKV(db *database.DB, key string, val string) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM system WHERE key = ?", key).Scan(&count); err != nil {
		return errors.Wrapf(err, "counting %s", key)
	}

	if count > 0 {
		return nil
	}

	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?)", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.TrailCtx) error {
	log.Debug("initializing the system\n")

	deviceID, err := utils.GenerateUUID()
	if err != nil {
		return errors.Wrap(err, "generating device id")
	}

	return database.RunInTx(ctx.DB, func(tx *database.DB) error {
		if err := initSystemKV(tx, consts.SystemDeviceID, deviceID); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemDeviceID)
		}
		if err := initSystemKV(tx, consts.SystemLastSyncAt, "0"); err != nil {
			return errors.Wrapf(err, "initializing system config for %s", consts.SystemLastSyncAt)
		}

		return nil
	})
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.TrailCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint: endpoint,
		Editor:      ui.GetEditorCommand(),
	}
	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
