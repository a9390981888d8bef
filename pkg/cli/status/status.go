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

// Package status implements the sync status state machine of local rows.
//
// A row is born new (authored offline) or clean (downloaded). Local
// mutations move it to dirty or deleted, and only a confirmed push moves
// it back to clean or purges it. A new row that is deleted before it was
// ever pushed is purged on the spot: the remote never saw it, so it never
// needs a tombstone.
package status

import (
	"fmt"
)

// Status is the sync status of a local row
type Status string

const (
	// Clean means the row matches the last known remote state
	Clean Status = "clean"
	// New means the row was authored locally and never pushed
	New Status = "new"
	// Dirty means the row exists remotely and was modified locally
	Dirty Status = "dirty"
	// Deleted means the row exists remotely and was deleted locally. The row
	// stays as a tombstone until the deletion is pushed.
	Deleted Status = "deleted"
)

// Action is what the store must do with a row after a delete or a push
type Action int

const (
	// Keep means the row stays with its new status
	Keep Action = iota
	// Tombstone means the row stays, marked deleted
	Tombstone
	// Purge means the row is physically removed
	Purge
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Tombstone:
		return "tombstone"
	case Purge:
		return "purge"
	}

	return fmt.Sprintf("action(%d)", int(a))
}

// Parse converts a stored value into a Status
func Parse(s string) (Status, error) {
	switch Status(s) {
	case Clean, New, Dirty, Deleted:
		return Status(s), nil
	}

	return "", fmt.Errorf("unknown sync status '%s'", s)
}

// OnCreate returns the status of a row authored locally
func OnCreate() Status {
	return New
}

// OnUpdate returns the status of a row after a local modification
func OnUpdate(s Status) Status {
	if s == New {
		return New
	}

	return Dirty
}

// OnDelete returns what happens to a row deleted locally
func OnDelete(s Status) (Status, Action) {
	if s == New {
		return s, Purge
	}

	return Deleted, Tombstone
}

// OnPushed returns what happens to a row once the remote confirmed the push
func OnPushed(s Status) (Status, Action) {
	if s == Deleted {
		return s, Purge
	}

	return Clean, Keep
}

// IsPending reports whether the row holds changes the remote does not know about
func IsPending(s Status) bool {
	return s != Clean
}

// IsVisible reports whether the row may be surfaced by read APIs
func IsVisible(s Status) bool {
	return s != Deleted
}
