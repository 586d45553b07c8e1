package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// JPEGEncoder encodes finished captures with OpenCV's JPEG writer.
type JPEGEncoder struct{}

// Encode writes img as JPEG at quality (1-100).
func (JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %v", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

func (JPEGEncoder) MimeType() string { return "image/jpeg" }
