package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a feed could not be opened or kept open.
type ErrorKind string

const (
	KindPermissionDenied         ErrorKind = "permission_denied"
	KindNoDevice                 ErrorKind = "no_device"
	KindDeviceBusy               ErrorKind = "device_busy"
	KindConstraintsUnsatisfiable ErrorKind = "constraints_unsatisfiable"
	KindTrackEnded               ErrorKind = "track_ended"
	KindUnknown                  ErrorKind = "unknown"
)

type DeviceError struct {
	Kind ErrorKind
	Err  error
}

func NewDeviceError(kind ErrorKind, format string, args ...any) *DeviceError {
	return &DeviceError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification; unclassified errors are KindUnknown.
func KindOf(err error) ErrorKind {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrTrackEnded) {
		return KindTrackEnded
	}
	return KindUnknown
}

// Retryable reports whether one retry with minimal constraints is allowed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConstraintsUnsatisfiable, KindPermissionDenied:
		return true
	default:
		return false
	}
}

// UserMessage is the actionable text shown for a failure.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindPermissionDenied:
		return "Camera access was denied. Grant camera permission and try again."
	case KindNoDevice:
		return "No camera was found. Connect a camera and try again."
	case KindDeviceBusy:
		return "The camera is in use by another application. Close it and try again."
	case KindConstraintsUnsatisfiable:
		return "The selected camera cannot provide the requested feed. Choose another camera."
	case KindTrackEnded:
		return "The camera feed stopped. Start the camera again."
	default:
		return "The camera could not be started: " + err.Error()
	}
}
