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

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trailsync/trailsync/pkg/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testServerBinary string

func init() {
	testServerBinary = filepath.Join(os.TempDir(), "trailsync-test-server")
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}
}

func waitForHealth(url string, timeout time.Duration) (*http.Response, error) {
	deadline := time.Now().Add(timeout)

	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}

		time.Sleep(100 * time.Millisecond)
	}
}

func TestServerStart(t *testing.T) {
	tmpDB := filepath.Join(t.TempDir(), "test.db")
	port := "13456"

	cmd := exec.Command(testServerBinary, "start", "--port", port, "--dbDSN", tmpDB)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"TRAILSYNC_JWT_SECRET=e2e-secret",
		"TRAILSYNC_APP_ENV=PRODUCTION",
	)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	cleanup := func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}
	defer cleanup()

	resp, err := waitForHealth(fmt.Sprintf("http://localhost:%s/health", port), 10*time.Second)
	if err != nil {
		t.Fatalf("failed to reach server health endpoint: %v", err)
	}
	defer resp.Body.Close()

	assert.Equal(t, resp.StatusCode, 200, "health endpoint should return 200")

	apiResp, err := http.Get(fmt.Sprintf("http://localhost:%s/api/v1/routes", port))
	if err != nil {
		t.Fatalf("failed to reach the api: %v", err)
	}
	apiResp.Body.Close()
	assert.Equal(t, apiResp.StatusCode, http.StatusUnauthorized, "api should require a token")

	// Stop the server before reading the database to avoid locks
	cleanup()

	if _, err := os.Stat(tmpDB); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", tmpDB)
	}

	db, err := gorm.Open(sqlite.Open(tmpDB), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM schema_migrations").Scan(&count).Error; err != nil {
		t.Fatalf("schema_migrations table not found: %v", err)
	}
	if count == 0 {
		t.Fatal("no migrations were run")
	}

	if err := db.Exec("SELECT id, slug, rating FROM routes LIMIT 1").Error; err != nil {
		t.Fatalf("routes table not found: %v", err)
	}
}

func TestServerStartRequiresSecret(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--port", "13457", "--dbDSN", filepath.Join(t.TempDir(), "test.db"))
	cmd.Dir = t.TempDir()

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("expected the server to refuse to start")
	}

	assert.Equal(t, strings.Contains(string(output), "JWT secret is empty"), true, "output should name the missing secret: "+string(output))
}

func TestServerVersion(t *testing.T) {
	cmd := exec.Command(testServerBinary, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "trailsync-server-") {
		t.Errorf("expected version output to contain 'trailsync-server-', got: %s", outputStr)
	}
}

func TestServerRootCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("server command failed: %v", err)
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Trailsync server"), true, "output should contain description")
	assert.Equal(t, strings.Contains(outputStr, "start: Start the server"), true, "output should contain start command")
	assert.Equal(t, strings.Contains(outputStr, "user: Manage users"), true, "output should contain user command")
}

func TestServerUserCommands(t *testing.T) {
	dir := t.TempDir()
	tmpDB := filepath.Join(dir, "test.db")

	run := func(args ...string) (string, error) {
		cmd := exec.Command(testServerBinary, args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "TRAILSYNC_DB_DSN="+tmpDB)
		out, err := cmd.CombinedOutput()
		return string(out), err
	}

	out, err := run("user", "create", "--username", "alice", "--password", "password123")
	if err != nil {
		t.Fatalf("user create failed: %v\n%s", err, out)
	}
	assert.Equal(t, strings.Contains(out, "User created successfully"), true, "output mismatch: "+out)

	out, err = run("user", "token", "--username", "alice", "--password", "password123", "--jwtSecret", "e2e-secret")
	if err != nil {
		t.Fatalf("user token failed: %v\n%s", err, out)
	}
	assert.Equal(t, strings.Count(strings.TrimSpace(out), "."), 2, "output should be a jwt: "+out)

	out, err = run("user", "token", "--username", "alice", "--password", "wrong-password", "--jwtSecret", "e2e-secret")
	assert.NotEqual(t, err, nil, "wrong password should fail")
	assert.Equal(t, strings.Contains(out, "wrong login credentials"), true, "output mismatch: "+out)
}
