package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"multires/internal/database"
	"multires/internal/logging"

	"github.com/disintegration/imaging"

	_ "image/gif"

	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFileType is returned when a recipe names an output format
// the engine cannot encode.
var ErrUnsupportedFileType = errors.New("unsupported output file type")

// Result is a rendered variant: the encoded bytes plus the final pixel
// dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Render decodes the source image, runs the recipe pipeline over it and
// encodes the result in the recipe's output format.
//
// The pipeline order is fixed: flip, rotate (optionally cropping the rotation
// background away), crop, then resize into the recipe bounding box.
func Render(src io.Reader, recipe *database.Recipe) (*Result, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	img = Apply(img, recipe)

	var buf bytes.Buffer
	if err := Encode(&buf, img, recipe); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	logging.Debug("Rendered %dx%d %s (%d bytes)",
		bounds.Dx(), bounds.Dy(), recipe.FileType, buf.Len())

	return &Result{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Apply runs the recipe's processing steps over a decoded image.
func Apply(img image.Image, recipe *database.Recipe) image.Image {
	if recipe.Flip != database.FlipNone {
		img = Flip(img, recipe.Flip)
	}

	if recipe.Rotate != 0 {
		if recipe.RotateCrop != database.RotateCropNone {
			img = RotateCrop(img, recipe.Rotate, recipe.RotateCrop)
		} else {
			img = Rotate(img, recipe.Rotate, recipe)
		}
	}

	if box, ok := recipe.CropBox(); ok {
		img = Crop(img, box)
	}

	if recipe.Width > 0 || recipe.Height > 0 {
		img = Resize(img, recipe.Width, recipe.Height, recipe.Fit, recipe.Upscale)
	}

	return img
}

// Encode writes the image in the recipe's output format. JPEG output honors
// the recipe quality when set; the encoder default applies otherwise.
func Encode(w io.Writer, img image.Image, recipe *database.Recipe) error {
	switch recipe.FileType {
	case database.FileTypeJPEG:
		var opts []imaging.EncodeOption
		if recipe.Quality > 0 {
			opts = append(opts, imaging.JPEGQuality(recipe.Quality))
		}
		if err := imaging.Encode(w, img, imaging.JPEG, opts...); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case database.FileTypePNG:
		if err := imaging.Encode(w, img, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, recipe.FileType)
	}
	return nil
}
