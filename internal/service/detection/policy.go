package detection

import "webcapture/internal/model"

// Required is the single rule deciding whether face presence is evaluated.
// Document categories never need a face, and only the user-facing camera can
// see the person taking the photo. When it returns false presence is forced true.
func Required(category model.CaptureCategory, facing model.FacingMode) bool {
	return category.RequiresFace() && facing == model.FacingFront
}
