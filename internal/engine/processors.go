package engine

import (
	"image"
	"image/color"
	"math"

	"multires/internal/database"

	"github.com/disintegration/imaging"
)

// Flip mirrors the image. FlipX mirrors left-right, FlipY upside-down.
func Flip(img image.Image, mode database.FlipMode) image.Image {
	switch mode {
	case database.FlipX:
		return imaging.FlipH(img)
	case database.FlipY:
		return imaging.FlipV(img)
	default:
		return img
	}
}

// Rotate rotates the image counter-clockwise by the given degrees, extending
// the canvas as needed. Right-angle rotations transpose without resampling.
// The rotation background is filled with the recipe's rotate color when one
// is configured, transparent black otherwise.
func Rotate(img image.Image, degrees int, recipe *database.Recipe) image.Image {
	if norm, ok := rightAngle(degrees); ok {
		switch norm {
		case 0:
			return img
		case 90:
			return imaging.Rotate90(img)
		case 180:
			return imaging.Rotate180(img)
		default:
			return imaging.Rotate270(img)
		}
	}

	bg := color.NRGBA{}
	if rgba, ok := recipe.BackgroundColor(); ok {
		bg = color.NRGBA{
			R: uint8(rgba[0]),
			G: uint8(rgba[1]),
			B: uint8(rgba[2]),
			A: uint8(rgba[3]),
		}
	}
	return imaging.Rotate(img, float64(degrees), bg)
}

// RotateCrop rotates the image and crops the result so no background
// regions remain.
func RotateCrop(img image.Image, degrees int, mode database.RotateCropMode) image.Image {
	if _, ok := rightAngle(degrees); ok {
		// Nothing to crop away for right-angle rotations
		return Rotate(img, degrees, &database.Recipe{})
	}

	bounds := img.Bounds()
	inputW, inputH := bounds.Dx(), bounds.Dy()

	rotated := imaging.Rotate(img, float64(degrees), color.NRGBA{})

	var w, h int
	if mode == database.RotateCropMaxArea {
		w, h = rotatedRectMaxArea(inputW, inputH, degrees)
	} else {
		rb := rotated.Bounds()
		w, h = rotatedRectAspectRatio(inputW, inputH, rb.Dx(), rb.Dy(), degrees)
	}
	if w <= 0 || h <= 0 {
		return rotated
	}
	return imaging.CropCenter(rotated, w, h)
}

// rightAngle normalizes degrees into [0, 360) and reports whether the
// rotation is a multiple of 90.
func rightAngle(degrees int) (int, bool) {
	norm := ((degrees % 360) + 360) % 360
	return norm, norm%90 == 0
}

// rotatedRectAspectRatio computes the size of the largest centered crop of a
// rotated image that preserves the original aspect ratio.
func rotatedRectAspectRatio(inputW, inputH, rotatedW, rotatedH, degrees int) (int, int) {
	if inputW <= 0 || inputH <= 0 || rotatedH <= 0 {
		return 0, 0
	}

	aspect := float64(inputW) / float64(inputH)
	rotatedAspect := float64(rotatedW) / float64(rotatedH)
	angle := math.Abs(float64(degrees)) * math.Pi / 180

	var totalHeight float64
	if aspect < 1 {
		totalHeight = float64(inputW) / rotatedAspect
	} else {
		totalHeight = float64(inputH)
	}

	h := totalHeight / (aspect*math.Sin(angle) + math.Cos(angle))
	w := h * aspect

	return int(w), int(h)
}

// rotatedRectMaxArea computes the axis-aligned rectangle of maximum area
// that fits entirely inside the rotated image.
func rotatedRectMaxArea(inputW, inputH, degrees int) (int, int) {
	if inputW <= 0 || inputH <= 0 {
		return 0, 0
	}

	angle := float64(degrees) * math.Pi / 180
	widthIsLonger := inputW >= inputH

	var sideLong, sideShort float64
	if widthIsLonger {
		sideLong, sideShort = float64(inputW), float64(inputH)
	} else {
		sideLong, sideShort = float64(inputH), float64(inputW)
	}

	// The solutions for angle, -angle and 180-angle are identical, so only
	// the absolute sin/cos of the first quadrant matter.
	sinA, cosA := math.Abs(math.Sin(angle)), math.Abs(math.Cos(angle))

	var wr, hr float64
	if sideShort <= 2*sinA*cosA*sideLong {
		// Half constrained: two crop corners touch the longer side, the
		// other two are on the mid-line parallel to it.
		x := 0.5 * sideShort
		if widthIsLonger {
			wr, hr = x/sinA, x/cosA
		} else {
			wr, hr = x/cosA, x/sinA
		}
	} else {
		// Fully constrained: the crop touches all four sides.
		cos2A := cosA*cosA - sinA*sinA
		wr = (float64(inputW)*cosA - float64(inputH)*sinA) / cos2A
		hr = (float64(inputH)*cosA - float64(inputW)*sinA) / cos2A
	}

	return int(wr), int(hr)
}

// Crop trims the image by percentages measured inward from each edge,
// in the order left, top, right, bottom.
func Crop(img image.Image, box [4]int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rect := image.Rect(
		int(float64(box[0])/100*float64(w)),
		int(float64(box[1])/100*float64(h)),
		w-int(float64(box[2])/100*float64(w)),
		h-int(float64(box[3])/100*float64(h)),
	)
	return imaging.Crop(img, rect)
}

// Resize fits the image into the width x height bounding box. A zero
// dimension falls back to the input dimension. FitContain preserves the whole
// image; the anchored modes scale to cover the box and crop around the
// anchor. Upscaling only applies to FitContain: anchored modes always cover
// the box, as a partially filled crop would reintroduce background.
func Resize(img image.Image, width, height int, fit database.FitMode, upscale bool) image.Image {
	bounds := img.Bounds()
	inputW, inputH := bounds.Dx(), bounds.Dy()
	if width <= 0 {
		width = inputW
	}
	if height <= 0 {
		height = inputH
	}

	if fit == database.FitContain {
		if inputW <= width && inputH <= height {
			if !upscale {
				return img
			}
			// Scale up until one side touches the box from inside
			if float64(width)/float64(inputW) < float64(height)/float64(inputH) {
				return imaging.Resize(img, width, 0, imaging.Lanczos)
			}
			return imaging.Resize(img, 0, height, imaging.Lanczos)
		}
		return imaging.Fit(img, width, height, imaging.Lanczos)
	}

	return imaging.Fill(img, width, height, anchorFor(fit), imaging.Lanczos)
}

func anchorFor(fit database.FitMode) imaging.Anchor {
	switch fit {
	case database.FitTop:
		return imaging.Top
	case database.FitLeft:
		return imaging.Left
	case database.FitRight:
		return imaging.Right
	case database.FitBottom:
		return imaging.Bottom
	default:
		return imaging.Center
	}
}
