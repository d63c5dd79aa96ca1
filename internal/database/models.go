package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lookup errors returned by the query methods.
var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrRecipeExists    = errors.New("recipe already exists for namespace and title")
)

// FileType is the output encoding of a rendered variant.
type FileType string

const (
	FileTypeJPEG FileType = "jpeg"
	FileTypePNG  FileType = "png"
)

// Ext returns the file extension for the type, without a leading dot.
func (f FileType) Ext() string {
	return string(f)
}

// FitMode controls how an image is fitted into the recipe bounding box.
type FitMode string

const (
	// FitContain scales the longest side down to the bounding box,
	// preserving aspect ratio.
	FitContain FitMode = "fit"
	// FitCenter, FitTop, FitLeft, FitRight and FitBottom scale the image to
	// cover the bounding box and crop around the named anchor.
	FitCenter FitMode = "center"
	FitTop    FitMode = "top"
	FitLeft   FitMode = "left"
	FitRight  FitMode = "right"
	FitBottom FitMode = "bottom"
)

// FlipMode mirrors the image around an axis before any other processing.
type FlipMode string

const (
	FlipNone FlipMode = ""
	// FlipX mirrors along the x axis (left-right).
	FlipX FlipMode = "x"
	// FlipY mirrors along the y axis (upside-down).
	FlipY FlipMode = "y"
)

// RotateCropMode selects how a rotated image is cropped to remove the
// background regions the rotation introduces.
type RotateCropMode string

const (
	RotateCropNone        RotateCropMode = ""
	RotateCropAspectRatio RotateCropMode = "aspect_ratio"
	RotateCropMaxArea     RotateCropMode = "max_area"
)

// VariantStatus is the lifecycle state of a variant row.
type VariantStatus string

const (
	// StatusPending means the variant exists but has not been rendered.
	StatusPending VariantStatus = "pending"
	// StatusProcessing means a request holds the render claim.
	StatusProcessing VariantStatus = "processing"
	// StatusProcessed is terminal; derived_path is set.
	StatusProcessed VariantStatus = "processed"
)

// Recipe describes how a source image is transformed into one derived
// variant. Recipes are created and edited only through the admin API;
// render logic reads them and never writes.
type Recipe struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Namespace   string   `json:"namespace"`
	Automatic   bool     `json:"automatic"`
	Flip        FlipMode `json:"flip,omitempty"`
	// Rotate is in degrees, counter-clockwise.
	Rotate      int            `json:"rotate,omitempty"`
	RotateCrop  RotateCropMode `json:"rotateCrop,omitempty"`
	RotateColor string         `json:"rotateColor,omitempty"` // "R,G,B,A"
	Crop        string         `json:"crop,omitempty"`        // "x1,y1,x2,y2" percent from edges
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	Upscale     bool           `json:"upscale"`
	Fit         FitMode        `json:"fit"`
	FileType    FileType       `json:"fileType"`
	Quality     int            `json:"quality,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Validate checks the enumerated and numeric fields. It is called on admin
// writes so that render logic can trust persisted recipes.
func (r *Recipe) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("recipe title is required")
	}
	switch r.Flip {
	case FlipNone, FlipX, FlipY:
	default:
		return fmt.Errorf("unsupported flip mode %q", r.Flip)
	}
	switch r.RotateCrop {
	case RotateCropNone, RotateCropAspectRatio, RotateCropMaxArea:
	default:
		return fmt.Errorf("unsupported rotate crop mode %q", r.RotateCrop)
	}
	switch r.Fit {
	case FitContain, FitCenter, FitTop, FitLeft, FitRight, FitBottom:
	default:
		return fmt.Errorf("unsupported fit mode %q", r.Fit)
	}
	switch r.FileType {
	case FileTypeJPEG, FileTypePNG:
	default:
		return fmt.Errorf("unsupported file type %q", r.FileType)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("dimensions must not be negative")
	}
	if r.Quality < 0 || r.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100")
	}
	if r.RotateColor != "" {
		if _, err := ParseValues(r.RotateColor, 4, 0, 255); err != nil {
			return fmt.Errorf("invalid rotate color: %w", err)
		}
	}
	if r.Crop != "" {
		if _, err := ParseValues(r.Crop, 4, 0, 100); err != nil {
			return fmt.Errorf("invalid crop box: %w", err)
		}
	}
	return nil
}

// CropBox returns the parsed crop percentages, or ok=false when the recipe
// does not crop.
func (r *Recipe) CropBox() (box [4]int, ok bool) {
	if r.Crop == "" {
		return box, false
	}
	values, err := ParseValues(r.Crop, 4, 0, 100)
	if err != nil {
		return box, false
	}
	copy(box[:], values)
	return box, true
}

// BackgroundColor returns the parsed rotate fill color, or ok=false when no
// color is configured.
func (r *Recipe) BackgroundColor() (rgba [4]int, ok bool) {
	if r.RotateColor == "" {
		return rgba, false
	}
	values, err := ParseValues(r.RotateColor, 4, 0, 255)
	if err != nil {
		return rgba, false
	}
	copy(rgba[:], values)
	return rgba, true
}

// ParseValues parses a comma separated list of exactly n integers, clamping
// each to [min, max].
func ParseValues(s string, n, min, max int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %d", n, len(parts))
	}
	values := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", p)
		}
		if v < min {
			v = min
		}
		if v > max {
			v = max
		}
		values[i] = v
	}
	return values, nil
}

// Variant binds one source image and one recipe to an optional derived file.
// DerivedPath stays empty until the variant has been rendered.
type Variant struct {
	ID          int64         `json:"id"`
	UUID        string        `json:"uuid"`
	Source      string        `json:"source"`
	RecipeID    int64         `json:"recipeId"`
	Status      VariantStatus `json:"status"`
	DerivedPath string        `json:"derivedPath,omitempty"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	Size        int64         `json:"size,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Processed reports whether the variant has been rendered.
func (v *Variant) Processed() bool {
	return v.Status == StatusProcessed && v.DerivedPath != ""
}

// VariantStats summarizes the variants table for the admin stats endpoint.
type VariantStats struct {
	TotalRecipes      int `json:"totalRecipes"`
	TotalVariants     int `json:"totalVariants"`
	ProcessedVariants int `json:"processedVariants"`
	PendingVariants   int `json:"pendingVariants"`
}
