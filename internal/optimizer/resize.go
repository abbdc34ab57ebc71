package optimizer

// FitDimensions computes target dimensions for an image so that its
// longer edge does not exceed maxDimension, preserving aspect ratio.
// Images already within the limit are returned unchanged (never
// upscaled). The short side is truncated, not rounded. A square image
// treats width as the long side.
func FitDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width >= height {
		return maxDimension, height * maxDimension / width
	}
	return width * maxDimension / height, maxDimension
}
