package checkin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmdatafocus/shop_console/models"
)

type State string

const (
	StateIdle             State = "idle"
	StateCameraRequesting State = "camera_requesting"
	StateCameraReady      State = "camera_ready"
	StateCaptured         State = "captured"
	StateSubmitting       State = "submitting"
)

var ErrClosed = errors.New("checkin: capture closed")

type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("checkin: cannot %s while %s", e.Op, e.State)
}

// Submitter stores a check-in for a customer.
type Submitter interface {
	SubmitCheckin(ctx context.Context, customerId int, photo Photo) error
}

// Capture drives one check-in from opening the camera to submission. It owns
// at most one stream, and that stream is stopped as soon as a photo is taken.
type Capture struct {
	mu     sync.Mutex
	camera Camera
	state  State
	stream Stream
	photo  *Photo
	gen    int
	now    func() time.Time
}

func NewCapture(camera Camera) *Capture {
	return &Capture{camera: camera, state: StateIdle, now: time.Now}
}

func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Photo returns the captured photo, or nil.
func (c *Capture) Photo() *Photo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.photo == nil {
		return nil
	}
	p := *c.photo
	return &p
}

// Open requests the camera, falling back to unconstrained video when the
// preferred constraints are rejected. Failures return to idle with a *CameraError.
func (c *Capture) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "open camera", State: state}
	}
	c.state = StateCameraRequesting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	stream, err := c.camera.Open(ctx, PreferredConstraints())
	if errors.Is(err, ErrConstraintsRejected) {
		stream, err = c.camera.Open(ctx, Constraints{})
	}
	if err == nil {
		if err = stream.WaitReady(ctx); err != nil {
			stopTracks(stream)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != StateCameraRequesting {
		if err == nil {
			stopTracks(stream)
		}
		return ErrClosed
	}
	if err != nil {
		c.state = StateIdle
		return classify(err)
	}
	c.stream = stream
	c.state = StateCameraReady
	return nil
}

// Capture grabs a frame, composes the photo and releases the camera.
func (c *Capture) Capture() (*Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCameraReady || c.stream == nil {
		return nil, &StateError{Op: "capture", State: c.state}
	}
	frame, err := c.stream.Frame()
	if err != nil {
		return nil, classify(err)
	}
	photo, err := Compose(frame, c.now())
	if err != nil {
		return nil, err
	}
	stopTracks(c.stream)
	c.stream = nil
	c.photo = photo
	c.state = StateCaptured
	p := *photo
	return &p, nil
}

// Retake discards the photo and opens the camera again.
func (c *Capture) Retake(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateCaptured {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "retake", State: state}
	}
	c.photo = nil
	c.state = StateIdle
	c.mu.Unlock()
	return c.Open(ctx)
}

// Submit sends the photo for customerId. On failure the photo is kept for a retry.
func (c *Capture) Submit(ctx context.Context, customerId int, submitter Submitter) error {
	c.mu.Lock()
	if c.state != StateCaptured || c.photo == nil {
		state := c.state
		c.mu.Unlock()
		if state == StateIdle {
			return models.NewValidationError("please capture a shop photo")
		}
		return &StateError{Op: "submit", State: state}
	}
	if customerId <= 0 {
		c.mu.Unlock()
		return models.NewValidationError("please select a customer")
	}
	photo := *c.photo
	photo.LastModified = c.now()
	c.state = StateSubmitting
	c.mu.Unlock()

	err := submitter.SubmitCheckin(ctx, customerId, photo)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitting {
		return err
	}
	if err != nil {
		c.state = StateCaptured
		return err
	}
	c.photo = nil
	c.state = StateIdle
	return nil
}

// Close stops any live stream whatever the state.
func (c *Capture) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		stopTracks(c.stream)
		c.stream = nil
	}
	c.photo = nil
	c.state = StateIdle
	c.gen++
}

func stopTracks(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		if !t.Stopped() {
			t.Stop()
		}
	}
}
