package checkin

import (
	"context"
	"errors"
	"image"
	"sync"
)

type FacingMode string

const FacingEnvironment FacingMode = "environment"

// Constraints are requested from a camera. The zero value asks for any video source.
type Constraints struct {
	Facing      FacingMode
	IdealWidth  int
	IdealHeight int
}

// PreferredConstraints asks for the rear camera at full HD.
func PreferredConstraints() Constraints {
	return Constraints{Facing: FacingEnvironment, IdealWidth: 1920, IdealHeight: 1080}
}

type Track interface {
	Stop()
	Stopped() bool
}

type Stream interface {
	WaitReady(ctx context.Context) error
	Frame() (image.Image, error)
	Tracks() []Track
}

type Camera interface {
	Open(ctx context.Context, constraints Constraints) (Stream, error)
}

var (
	ErrDeviceNotFound      = errors.New("camera: no device found")
	ErrPermissionDenied    = errors.New("camera: permission denied")
	ErrDeviceBusy          = errors.New("camera: device busy")
	ErrConstraintsRejected = errors.New("camera: constraints rejected")
)

type Reason string

const (
	ReasonDeviceNotFound   Reason = "device-not-found"
	ReasonPermissionDenied Reason = "permission-denied"
	ReasonDeviceBusy       Reason = "device-busy"
	ReasonUnknown          Reason = "unknown"
)

// CameraError is a camera failure reduced to what the user can act on.
type CameraError struct {
	Reason Reason
	Err    error
}

func (e *CameraError) Error() string {
	if e.Err != nil {
		return "camera " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "camera " + string(e.Reason)
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

func (e *CameraError) UserMessage() string {
	switch e.Reason {
	case ReasonDeviceNotFound:
		return "No camera was found on this device."
	case ReasonPermissionDenied:
		return "Camera access was denied. Allow camera access and try again."
	case ReasonDeviceBusy:
		return "The camera is in use by another application."
	}
	return "Could not start the camera."
}

func classify(err error) *CameraError {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce
	}
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		return &CameraError{Reason: ReasonDeviceNotFound, Err: err}
	case errors.Is(err, ErrPermissionDenied):
		return &CameraError{Reason: ReasonPermissionDenied, Err: err}
	case errors.Is(err, ErrDeviceBusy):
		return &CameraError{Reason: ReasonDeviceBusy, Err: err}
	}
	return &CameraError{Reason: ReasonUnknown, Err: err}
}

// StillCamera serves one frame that was captured elsewhere, such as an
// uploaded photo. It accepts any constraints.
type StillCamera struct {
	Image image.Image
}

func (c StillCamera) Open(ctx context.Context, _ Constraints) (Stream, error) {
	if c.Image == nil {
		return nil, ErrDeviceNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &stillStream{img: c.Image, track: &stillTrack{}}, nil
}

type stillStream struct {
	img   image.Image
	track *stillTrack
}

func (s *stillStream) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

func (s *stillStream) Frame() (image.Image, error) {
	if s.track.Stopped() {
		return nil, errors.New("camera: stream stopped")
	}
	return s.img, nil
}

func (s *stillStream) Tracks() []Track {
	return []Track{s.track}
}

type stillTrack struct {
	mu      sync.Mutex
	stopped bool
}

func (t *stillTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *stillTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
