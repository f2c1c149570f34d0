package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Facing string

const (
	FacingAny         Facing = ""
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

func ParseFacing(raw string) (Facing, error) {
	switch Facing(strings.ToLower(strings.TrimSpace(raw))) {
	case FacingAny:
		return FacingAny, nil
	case FacingEnvironment, "rear", "back":
		return FacingEnvironment, nil
	case FacingUser, "front":
		return FacingUser, nil
	default:
		return FacingAny, fmt.Errorf("unsupported facing mode %q", raw)
	}
}

type State int

const (
	StateClosed State = iota
	StateRequesting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

type Device struct {
	ID     string
	Label  string
	Facing Facing
}

// DisplayLabel names unlabeled devices by position instead of failing.
func (d Device) DisplayLabel(position int) string {
	if strings.TrimSpace(d.Label) != "" {
		return d.Label
	}
	return fmt.Sprintf("Unknown camera %d", position)
}

// Constraints describe the feed being requested. The zero value means
// "any camera".
type Constraints struct {
	DeviceID string
	Facing   Facing
	Width    int
	Height   int
}

func (c Constraints) Minimal() bool {
	return c == Constraints{}
}

// Preferred returns the constraints used when the caller names no device:
// the environment-facing camera.
func Preferred(deviceID string) Constraints {
	if strings.TrimSpace(deviceID) != "" {
		return Constraints{DeviceID: deviceID}
	}
	return Constraints{Facing: FacingEnvironment}
}

// DriverManifest points at an out-of-process camera driver.
type DriverManifest struct {
	Name   string `json:"name"`
	Binary string `json:"binary"`
}

func (m DriverManifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("driver name is required")
	}
	if strings.TrimSpace(m.Binary) == "" {
		return fmt.Errorf("driver %s: binary is required", m.Name)
	}
	return nil
}

var (
	ErrNotOpen    = errors.New("camera is not open")
	ErrNoFrame    = errors.New("camera has not produced a frame yet")
	ErrTrackEnded = errors.New("camera track ended")
)
