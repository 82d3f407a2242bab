package checkin

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	targetWidth  = 800
	maxHeight    = 600
	jpegQuality  = 80
	overlayPad   = 6
	overlayInset = 10
	ContentType  = "image/jpeg"
)

var ErrEmptyFrame = errors.New("checkin: empty frame")

// Photo is a composed check-in image ready for upload.
type Photo struct {
	Name         string
	ContentType  string
	Data         []byte
	Width        int
	Height       int
	CapturedAt   time.Time
	LastModified time.Time
}

// ScaledSize fits a w x h frame to width 800, or to height 600 when the
// result would be taller. Fractions are truncated.
func ScaledSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	aspect := float64(w) / float64(h)
	width := targetWidth
	height := int(float64(targetWidth) / aspect)
	if height > maxHeight {
		height = maxHeight
		width = int(float64(maxHeight) * aspect)
	}
	return max(width, 1), max(height, 1)
}

// FileName is derived from the capture instant in epoch milliseconds.
func FileName(capturedAt time.Time) string {
	return fmt.Sprintf("checkin-%d.jpg", capturedAt.UnixMilli())
}

// DecodeFrame reads an uploaded image, honoring EXIF orientation.
func DecodeFrame(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

// Compose scales the frame, burns the capture time into the bottom-right
// corner and encodes it as JPEG.
func Compose(frame image.Image, capturedAt time.Time) (*Photo, error) {
	if frame == nil {
		return nil, ErrEmptyFrame
	}
	b := frame.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy())
	if w == 0 || h == 0 {
		return nil, ErrEmptyFrame
	}
	scaled := imaging.Resize(frame, w, h, imaging.Lanczos)
	drawTimestamp(scaled, capturedAt)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode check-in photo: %w", err)
	}
	return &Photo{
		Name:         FileName(capturedAt),
		ContentType:  ContentType,
		Data:         buf.Bytes(),
		Width:        w,
		Height:       h,
		CapturedAt:   capturedAt,
		LastModified: capturedAt,
	}, nil
}

func drawTimestamp(img *image.NRGBA, at time.Time) {
	face := basicfont.Face7x13
	lines := []string{at.Format("15:04"), at.Format("02 Jan 2006")}
	lineHeight := face.Metrics().Height.Ceil() + 2

	textWidth := 0
	for _, line := range lines {
		textWidth = max(textWidth, font.MeasureString(face, line).Ceil())
	}
	bounds := img.Bounds()
	box := image.Rect(
		bounds.Max.X-overlayInset-textWidth-2*overlayPad,
		bounds.Max.Y-overlayInset-len(lines)*lineHeight-2*overlayPad,
		bounds.Max.X-overlayInset,
		bounds.Max.Y-overlayInset,
	).Intersect(bounds)
	if box.Empty() {
		return
	}
	draw.Draw(img, box, image.NewUniform(color.NRGBA{A: 160}), image.Point{}, draw.Over)

	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	for i, line := range lines {
		x := box.Max.X - overlayPad - font.MeasureString(face, line).Ceil()
		y := box.Min.Y + overlayPad + i*lineHeight + face.Metrics().Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
}
