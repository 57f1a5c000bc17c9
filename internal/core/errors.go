package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotFound      = "not_found"
	ErrCodeForbidden     = "forbidden"
	ErrCodeStorage       = "storage_error"
	ErrCodeInternal      = "internal_error"
	ErrCodeRoomNotFound  = "room_not_found"
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeNotInRoom     = "not_in_room"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotInRoom     = errors.New("not in room")
	ErrBadRequest    = errors.New("bad request")
	ErrHubClosed     = errors.New("hub closed")

	// ErrInvalidRequest marks malformed input rejected before the store is touched.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMessageNotFound is returned when the referenced message does not exist in the room.
	ErrMessageNotFound = errors.New("message not found")
	// ErrForbidden matches every *ForbiddenError.
	ErrForbidden = errors.New("forbidden")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage error")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrBadRequest) match bad request codes.
func (e *CoreError) Is(target error) bool {
	return target == ErrBadRequest && e.Code == ErrCodeBadRequest
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ForbiddenError reports an authorization denial with its reason.
type ForbiddenError struct {
	Reason DenyReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Is makes errors.Is(err, ErrForbidden) true.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// StorageError wraps a persistence failure of one operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorage) true.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Code maps an error returned by the core to its wire code.
func Code(err error) string {
	var ce *CoreError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrBadRequest):
		return ErrCodeBadRequest
	case errors.Is(err, ErrMessageNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrForbidden):
		return ErrCodeForbidden
	case errors.Is(err, ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, ErrAlreadyJoined):
		return ErrCodeAlreadyJoined
	case errors.Is(err, ErrNotInRoom):
		return ErrCodeNotInRoom
	case errors.Is(err, ErrStorage):
		return ErrCodeStorage
	default:
		return ErrCodeInternal
	}
}
