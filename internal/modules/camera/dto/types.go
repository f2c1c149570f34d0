package dto

import "image"

type StartInput struct {
	DeviceID string
}

type StatusOutput struct {
	State     string
	DeviceID  string
	LastError string
	Hidden    bool
}

type DeviceOutput struct {
	ID     string
	Label  string
	Facing string
}

type FrameOutput struct {
	DeviceID string
	Image    image.Image
}
