// Package frame holds the 8-bit intensity frame type and the image
// primitives used by calibration and state readout: background
// differencing, intensity statistics, thresholding, connected bright
// regions, and circular region-of-interest means.
package frame

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Frame is a captured 2-D array of 8-bit intensity samples, row-major.
// Frames are immutable once captured.
type Frame struct {
	Height int
	Width  int
	Pix    []uint8
}

// New returns a zeroed frame of the given dimensions.
func New(height, width int) *Frame {
	return &Frame{Height: height, Width: width, Pix: make([]uint8, height*width)}
}

// FromBytes wraps raw row-major pixel data in a Frame, validating length.
func FromBytes(height, width int, data []byte) (*Frame, error) {
	if len(data) != height*width {
		return nil, fmt.Errorf("frame data is %d bytes, want %d for %dx%d",
			len(data), height*width, height, width)
	}
	return &Frame{Height: height, Width: width, Pix: data}, nil
}

// At returns the intensity at pixel (x, y).
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*f.Width+x]
}

// InBounds reports whether (x, y) lies within the frame.
func (f *Frame) InBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// Mean returns the mean intensity over the whole frame.
func (f *Frame) Mean() float64 {
	mean, _ := f.MeanStdDev()
	return mean
}

// MeanStdDev returns the mean and standard deviation of the frame's
// intensities.
func (f *Frame) MeanStdDev() (mean, sigma float64) {
	vals := make([]float64, len(f.Pix))
	for i, p := range f.Pix {
		vals[i] = float64(p)
	}
	return stat.MeanStdDev(vals, nil)
}

// AbsDiff returns the per-pixel absolute difference of two equally-sized
// frames.
func AbsDiff(a, b *Frame) (*Frame, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return nil, fmt.Errorf("frame size mismatch: %dx%d vs %dx%d",
			a.Height, a.Width, b.Height, b.Width)
	}
	out := New(a.Height, a.Width)
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		out.Pix[i] = uint8(d)
	}
	return out, nil
}

// CircleMean returns the mean intensity inside the circular region of
// radius r centered at (cx, cy), clipped to the frame. Returns 0 for a
// region entirely outside the frame.
func (f *Frame) CircleMean(cx, cy, r int) float64 {
	var sum, count int64
	r2 := r * r
	for y := cy - r; y <= cy+r; y++ {
		if y < 0 || y >= f.Height {
			continue
		}
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || x >= f.Width {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				sum += int64(f.Pix[y*f.Width+x])
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
