package compositor

import (
	"image"

	"golang.org/x/image/draw"
)

// Render scales region of src onto a new out-sized surface. The front camera
// preview is shown mirrored, so mirror should be true for front captures to
// make the saved photo match the screen.
func Render(src image.Image, region Region, out image.Point, mirror bool) (*image.RGBA, error) {
	if out.X <= 0 || out.Y <= 0 || region.Empty() {
		return nil, ErrSurfaceUnavailable
	}

	sr := region.Rect().Add(src.Bounds().Min).Intersect(src.Bounds())
	if sr.Empty() {
		return nil, ErrSurfaceUnavailable
	}

	dst := image.NewRGBA(image.Rect(0, 0, out.X, out.Y))
	if sr.Size() == out {
		draw.Draw(dst, dst.Bounds(), src, sr.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	}

	if mirror {
		Mirror(dst)
	}
	return dst, nil
}

// Mirror flips img horizontally in place.
func Mirror(img *image.RGBA) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i, j := 0, w-1; i < j; i, j = i+1, j-1 {
			pi, pj := i*4, j*4
			row[pi], row[pj] = row[pj], row[pi]
			row[pi+1], row[pj+1] = row[pj+1], row[pi+1]
			row[pi+2], row[pj+2] = row[pj+2], row[pi+2]
			row[pi+3], row[pj+3] = row[pj+3], row[pi+3]
		}
	}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop cuts the TargetRatio region out of frame without scaling. Used by the
// detection loop so inference sees exactly what capture would keep.
func Crop(frame image.Image) (image.Image, error) {
	b := frame.Bounds()
	region := CropRegion(b.Dx(), b.Dy())
	if region.Empty() {
		return nil, ErrSurfaceUnavailable
	}
	if s, ok := frame.(subImager); ok {
		return s.SubImage(region.Rect().Add(b.Min)), nil
	}
	return Render(frame, region, region.Size(), false)
}
