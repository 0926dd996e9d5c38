// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Kinds of region errors. Use errors.Is to check, which one happened.
var (
	// ErrInvalidArgument is returned for zero sizes, unknown modes, and empty names.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists is returned, if an object being created exists.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrNotFound is returned, if an object being opened does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrMapFailed is returned, if an object could not be mapped into memory.
	ErrMapFailed = errors.New("mapping failed")
	// ErrSizeMismatch is returned, if object's size could not be verified,
	// or it does not fit the request.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrResizeFailed is returned, if a created object could not be resized.
	ErrResizeFailed = errors.New("resize failed")
)

// RegionError records a failed region operation.
type RegionError struct {
	Op   string
	Name string
	Kind error
	Err  error
}

func (e *RegionError) Error() string {
	msg := e.Op + " " + strconv.Quote(e.Name)
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RegionError) Unwrap() error {
	return e.Err
}

// Cause is to support errors.Cause.
func (e *RegionError) Cause() error {
	return e.Err
}

// Is returns true, if target is the kind of the error.
func (e *RegionError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

func newRegionError(op, name string, kind, err error) *RegionError {
	return &RegionError{Op: op, Name: name, Kind: kind, Err: err}
}

// translateError turns an error returned by a platform into a *RegionError.
// Errors, which already have a kind, are returned as is.
func translateError(op, name string, err error) error {
	var regionErr *RegionError
	if errors.As(err, &regionErr) {
		return err
	}
	var kind error
	switch {
	case errors.Is(err, os.ErrExist):
		kind = ErrAlreadyExists
	case errors.Is(err, os.ErrNotExist):
		kind = ErrNotFound
	}
	return newRegionError(op, name, kind, err)
}
