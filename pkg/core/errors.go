// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package core

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Error taxonomy of the core service.
//
// ValidationError: a required field is missing, a reference dangles or
// a unique name is taken. Surfaced to the caller, never retried.
// NotFoundError: an unknown identifier or an unresolvable device.
// LimitExceededError: a read path asked for more than the configured
// maximum result size.
// ServiceError: an unexpected failure of the store or the directory;
// the cause is logged, not exposed.

// ValidationError reports invalid incoming data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a lookup miss.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// LimitExceededError reports a read request exceeding the max result size.
type LimitExceededError struct {
	Kind string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("max limit exceeded on request for %s", e.Kind)
}

// ServiceError wraps an unanticipated collaborator failure.
type ServiceError struct {
	Cause error
}

func (e *ServiceError) Error() string {
	return "unexpected service error"
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// serviceErr logs the underlying cause and wraps it as opaque.
func serviceErr(err error) error {
	log.Errorf("Unexpected service error: %v", err)
	return &ServiceError{Cause: err}
}

// notRecordFound tells a store miss apart from a store failure.
func notRecordFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
