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

package database

import (
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/trailsync/trailsync/pkg/server/database/migrations"
	"github.com/trailsync/trailsync/pkg/server/log"
	"gorm.io/gorm"
)

// MigrationTableName is the name of the table that keeps track of applied migrations
const MigrationTableName = "schema_migrations"

func newMigrationSet() migrate.MigrationSet {
	return migrate.MigrationSet{TableName: MigrationTableName}
}

// migrationDialect returns the sql-migrate dialect of a gorm connection
func migrationDialect(db *gorm.DB) (string, error) {
	switch name := db.Dialector.Name(); name {
	case DriverSQLite:
		return "sqlite3", nil
	case DriverPostgres:
		return "postgres", nil
	default:
		return "", errors.Errorf("no migration dialect for driver '%s'", name)
	}
}

// Migrate applies the embedded SQL migrations that auto migration cannot
// express, such as expression and partial indexes
func Migrate(db *gorm.DB) error {
	_, err := migrateFS(db, migrations.Files)
	return err
}

// migrateFS applies the pending migrations found in fsys and returns the
// number applied
func migrateFS(db *gorm.DB, fsys fs.FS) (int, error) {
	dialect, err := migrationDialect(db)
	if err != nil {
		return 0, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, errors.Wrap(err, "getting the sql connection")
	}

	source := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(fsys),
	}

	n, err := newMigrationSet().Exec(sqlDB, dialect, source, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "applying migrations")
	}

	log.WithFields(log.Fields{
		"applied": n,
	}).Info("Migrate success.")

	return n, nil
}
