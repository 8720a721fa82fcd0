package core

import (
	"errors"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Error codes for domain errors.
const (
	ErrCodeRoomNotFound       = "room_not_found"
	ErrCodeNotAMember         = "not_a_member"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodePersistence        = "persistence_failure"
	ErrCodeBanned             = "banned"
	ErrCodeSlowMode           = "slow_mode"
	ErrCodeRejected           = "rejected_content"
	ErrCodeMessageNotFound    = "message_not_found"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInternal           = "internal"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotAMember      = errors.New("not a member of this room")
	ErrUnauthorized    = errors.New("insufficient role")
	ErrPersistence     = errors.New("persistence failure")
	ErrBanned          = errors.New("banned from this room")
	ErrSlowMode        = errors.New("slow mode is on, wait before sending again")
	ErrRejected        = errors.New("message rejected")
	ErrMessageNotFound = errors.New("message not found")
	ErrBadRequest      = errors.New("bad request")

	// ErrStorageUnavailable is the set store's unavailability error.
	ErrStorageUnavailable = setstore.ErrUnavailable

	// ErrConnectionGone is returned when pushing to an unregistered connection.
	ErrConnectionGone = errors.New("connection gone")
	// ErrPushTimeout is returned when a connection buffer stays full.
	ErrPushTimeout = errors.New("push timed out")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, ErrCodeRoomNotFound},
	{ErrNotAMember, ErrCodeNotAMember},
	{ErrUnauthorized, ErrCodeUnauthorized},
	{ErrPersistence, ErrCodePersistence},
	{ErrBanned, ErrCodeBanned},
	{ErrSlowMode, ErrCodeSlowMode},
	{ErrRejected, ErrCodeRejected},
	{ErrMessageNotFound, ErrCodeMessageNotFound},
	{ErrBadRequest, ErrCodeBadRequest},
	{ErrStorageUnavailable, ErrCodeStorageUnavailable},
}

// ToCoreError classifies err into a client-facing error. The message of a
// classified error is the sentinel text, never the wrapped detail.
func ToCoreError(err error) *CoreError {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			if ec.err == ErrRejected {
				return coreError(ec.code, err.Error())
			}
			return coreError(ec.code, ec.err.Error())
		}
	}
	return coreError(ErrCodeInternal, "internal error")
}
