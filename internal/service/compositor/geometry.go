package compositor

import (
	"image"
	"math"
)

// TargetRatio is the width/height ratio of every saved photo and every detection crop.
const TargetRatio = 4.0 / 5.0

// Region is a sub-rectangle of a frame in source pixels.
type Region struct {
	X, Y          float64
	Width, Height float64
}

// CropRegion returns the largest centered TargetRatio rectangle that fits a width x height frame.
// Wide frames lose columns on both sides, tall frames lose rows top and bottom.
func CropRegion(width, height int) Region {
	w, h := float64(width), float64(height)
	if w <= 0 || h <= 0 {
		return Region{}
	}

	if w/h > TargetRatio {
		cropWidth := h * TargetRatio
		return Region{X: (w - cropWidth) / 2, Y: 0, Width: cropWidth, Height: h}
	}

	cropHeight := w / TargetRatio
	return Region{X: 0, Y: (h - cropHeight) / 2, Width: w, Height: cropHeight}
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width < 1 || r.Height < 1
}

// Size returns the region size rounded to whole pixels.
func (r Region) Size() image.Point {
	return image.Pt(int(math.Round(r.Width)), int(math.Round(r.Height)))
}

// Rect returns the region as an integer rectangle with origin at the frame's top-left.
func (r Region) Rect() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	size := r.Size()
	return image.Rect(x0, y0, x0+size.X, y0+size.Y)
}
