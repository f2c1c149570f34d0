// Command testpattern is a camera driver that serves synthetic frames. It is
// used for demos and for exercising the driver host end to end.
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	camerarpc "siteaudit/internal/modules/camera/adapter/out/rpc"
)

const (
	frameWidth  = 640
	frameHeight = 480
)

type device struct {
	id     string
	label  string
	facing string
}

var devices = []device{
	{id: "rear", label: "Test pattern (rear)", facing: "environment"},
	{id: "front", label: "Test pattern (front)", facing: "user"},
}

type server struct {
	mu      sync.Mutex
	granted bool
	next    int
	streams map[string]*stream
}

type stream struct {
	deviceID string
	tick     int
}

func (s *server) ListDevices(_ context.Context, _ *camerarpc.Empty) (*camerarpc.ListDevicesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]camerarpc.Device, 0, len(devices))
	for _, d := range devices {
		label := ""
		// Labels stay hidden until a feed has been granted once.
		if s.granted {
			label = d.label
		}
		out = append(out, camerarpc.Device{ID: d.id, Label: label, Facing: d.facing})
	}
	return &camerarpc.ListDevicesResponse{Devices: out}, nil
}

func (s *server) Open(_ context.Context, in *camerarpc.OpenRequest) (*camerarpc.OpenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range devices {
		if in.DeviceID != "" && in.DeviceID != d.id {
			continue
		}
		if in.Facing != "" && in.Facing != d.facing {
			continue
		}
		for _, st := range s.streams {
			if st.deviceID == d.id {
				return &camerarpc.OpenResponse{ErrorKind: "device_busy", Message: d.id + " is already streaming"}, nil
			}
		}
		s.granted = true
		s.next++
		id := fmt.Sprintf("stream-%d", s.next)
		s.streams[id] = &stream{deviceID: d.id}
		return &camerarpc.OpenResponse{StreamID: id, DeviceID: d.id}, nil
	}
	return &camerarpc.OpenResponse{
		ErrorKind: "constraints_unsatisfiable",
		Message:   fmt.Sprintf("no test camera matches device=%q facing=%q", in.DeviceID, in.Facing),
	}, nil
}

func (s *server) ReadFrame(_ context.Context, in *camerarpc.FrameRequest) (*camerarpc.FrameResponse, error) {
	s.mu.Lock()
	st, ok := s.streams[in.StreamID]
	if ok {
		st.tick++
	}
	s.mu.Unlock()
	if !ok {
		return &camerarpc.FrameResponse{Ended: true}, nil
	}

	img := pattern(st.deviceID, st.tick)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return &camerarpc.FrameResponse{Width: frameWidth, Height: frameHeight, PNG: buf.Bytes()}, nil
}

func (s *server) Close(_ context.Context, in *camerarpc.CloseRequest) (*camerarpc.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, in.StreamID)
	return &camerarpc.Empty{}, nil
}

func pattern(deviceID string, tick int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	var tint uint8
	if deviceID == "front" {
		tint = 0x80
	}
	shift := tick * 8
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x + shift) * 255 / frameWidth),
				G: uint8(y * 255 / frameHeight),
				B: tint,
				A: 0xff,
			})
		}
	}
	return img
}

func main() {
	camerarpc.Serve(&server{streams: map[string]*stream{}})
}
