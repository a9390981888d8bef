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

// Package syncerr defines the error taxonomy shared by the local replica,
// the reconciliation engine and the sync server.
package syncerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError is returned when a required field is missing or invalid.
// No writes are attempted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}

	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidation returns a ValidationError for the given field
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned when the target row does not exist or is a tombstone
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NewNotFound returns a NotFoundError for the given resource
func NewNotFound(resource string, id int) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// NotOwnerError is returned when the row exists but the caller is not its author
type NotOwnerError struct {
	Resource string
	ID       int
	UserID   int
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("user %d does not own %s %d", e.UserID, e.Resource, e.ID)
}

// NewNotOwner returns a NotOwnerError for the given resource
func NewNotOwner(resource string, id, userID int) error {
	return &NotOwnerError{Resource: resource, ID: id, UserID: userID}
}

// NetworkError wraps a transport failure. Local state is never modified
// when it is returned, so the operation can be retried verbatim.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ConflictError is returned when the remote already holds a row with the
// same id owned by someone else
type ConflictError struct {
	Resource string
	ID       int
	Message  string
}

func (e *ConflictError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("conflict: %s", e.Message)
	}

	return fmt.Sprintf("conflict on %s %d: %s", e.Resource, e.ID, e.Message)
}

// NewConflict returns a ConflictError for the given resource
func NewConflict(resource string, id int, message string) error {
	return &ConflictError{Resource: resource, ID: id, Message: message}
}

// PendingChangesError is returned by a download that would discard
// local changes that have not been pushed yet
type PendingChangesError struct {
	RouteID int
	Count   int
	// Authors holds the ids of the users who authored the pending rows
	Authors []int
}

// ForeignAuthors returns the authors of the pending rows other than userID
func (e *PendingChangesError) ForeignAuthors(userID int) []int {
	ret := []int{}
	for _, a := range e.Authors {
		if a != userID {
			ret = append(ret, a)
		}
	}

	return ret
}

func (e *PendingChangesError) Error() string {
	return fmt.Sprintf("route %d has %d unsynced local changes", e.RouteID, e.Count)
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNotOwner reports whether err is or wraps a NotOwnerError
func IsNotOwner(err error) bool {
	var target *NotOwnerError
	return errors.As(err, &target)
}

// IsNetwork reports whether err is or wraps a NetworkError
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsConflict reports whether err is or wraps a ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsPendingChanges reports whether err is or wraps a PendingChangesError
func IsPendingChanges(err error) bool {
	var target *PendingChangesError
	return errors.As(err, &target)
}
