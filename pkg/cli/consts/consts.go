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

// Package consts provides definitions of constants
package consts

var (
	// DirName is the name of the directory containing trail files
	DirName = "trail"
	// DBFileName is a filename for the local SQLite replica
	DBFileName = "trail.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "trailrc"
	// TmpContentFileBase is the base for the filename for a comment being composed
	TmpContentFileBase = "TRAIL_COMMENT"
	// TmpContentFileExt is the extension for the temporary comment file
	TmpContentFileExt = "md"

	// SystemSessionToken is the key of the bearer token in the system table
	SystemSessionToken = "session_token"
	// SystemDeviceID is the key of the random id identifying this device
	SystemDeviceID = "device_id"
	// SystemLastSyncAt is the unix timestamp of the last successful sync
	SystemLastSyncAt = "last_sync_at"
)
