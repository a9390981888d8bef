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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/buildinfo"
	"github.com/trailsync/trailsync/pkg/server/config"
	"github.com/trailsync/trailsync/pkg/server/controllers"
	"github.com/trailsync/trailsync/pkg/server/log"
)

const shutdownTimeout = 10 * time.Second

func startCmd(args []string) error {
	fs := setupFlagSet("start", "trailsync-server start")

	appEnv := fs.String("appEnv", "", "Application environment (env: TRAILSYNC_APP_ENV, default: PRODUCTION)")
	port := fs.String("port", "", "Server port (env: TRAILSYNC_PORT, default: 3001)")
	jwtSecret := fs.String("jwtSecret", "", "Secret signing API tokens (env: TRAILSYNC_JWT_SECRET, required)")
	jwtIssuer := fs.String("jwtIssuer", "", "Issuer claim of API tokens (env: TRAILSYNC_JWT_ISSUER, default: trailsync)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: TRAILSYNC_LOG_LEVEL, default: info)")
	repairSchedule := fs.String("repairSchedule", "", "Cron schedule of the rating repair (env: TRAILSYNC_REPAIR_SCHEDULE, default: @every 1h)")
	db := addDBFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	p := db.params()
	p.AppEnv = *appEnv
	p.Port = *port
	p.JWTSecret = *jwtSecret
	p.JWTIssuer = *jwtIssuer
	p.LogLevel = *logLevel
	p.RepairSchedule = *repairSchedule

	cfg, err := config.New(p)
	if err != nil {
		fs.Usage()
		return errors.Wrap(err, "reading configuration")
	}
	if err := cfg.RequireSecret(); err != nil {
		fs.Usage()
		return err
	}

	log.SetLevel(cfg.LogLevel)
	defer log.Sync()

	app, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer closeDB(app.DB)

	scheduler, err := app.NewScheduler(cfg.RepairSchedule)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	rc := controllers.NewRouteConfig(&app)
	r, err := controllers.NewRouter(&app, rc)
	if err != nil {
		return errors.Wrap(err, "initializing router")
	}

	done := make(chan struct{})
	defer close(done)
	if rc.Limiter != nil {
		go rc.Limiter.RunCleanup(done)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithFields(log.Fields{
		"version":   buildinfo.Version,
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
	}).Info("Trailsync server starting")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
