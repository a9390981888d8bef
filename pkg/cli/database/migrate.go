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
	"github.com/trailsync/trailsync/pkg/cli/database/migrations"
)

// MigrationTableName is the name of the table that keeps track of applied migrations
const MigrationTableName = "schema_migrations"

func newMigrationSet() migrate.MigrationSet {
	return migrate.MigrationSet{TableName: MigrationTableName}
}

// Migrate applies every pending migration embedded in the binary and
// returns the number of migrations applied
func Migrate(db *DB) (int, error) {
	return migrateFS(db, migrations.Files)
}

func migrateFS(db *DB, fsys fs.FS) (int, error) {
	if db.Tx != nil {
		return 0, errors.New("cannot migrate inside a transaction")
	}

	source := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(fsys),
	}

	ms := newMigrationSet()
	n, err := ms.Exec(db.Conn, "sqlite3", source, migrate.Up)
	if err != nil {
		return n, errors.Wrap(err, "applying migrations")
	}

	return n, nil
}
