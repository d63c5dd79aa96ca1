package engine

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"multires/internal/database"
)

// testImage generates a solid-color image for pipeline tests.
func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

// encodeJPEG returns the image as a JPEG byte stream.
func encodeJPEG(t *testing.T, img image.Image) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestRenderJPEGRoundTrip(t *testing.T) {
	recipe := &database.Recipe{
		Title:    "thumbnail",
		Width:    200,
		Height:   200,
		Fit:      database.FitContain,
		FileType: database.FileTypeJPEG,
		Quality:  80,
	}

	result, err := Render(encodeJPEG(t, testImage(800, 600)), recipe)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Output must decode as JPEG
	decoded, format, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("failed to decode rendered output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("output format = %q, want jpeg", format)
	}

	// Dimensions must satisfy the bounding box
	bounds := decoded.Bounds()
	if bounds.Dx() > 200 || bounds.Dy() > 200 {
		t.Errorf("output %dx%d exceeds 200x200 bounding box", bounds.Dx(), bounds.Dy())
	}
	if result.Width != bounds.Dx() || result.Height != bounds.Dy() {
		t.Errorf("result dims %dx%d disagree with decoded %dx%d",
			result.Width, result.Height, bounds.Dx(), bounds.Dy())
	}

	// 800x600 fit into 200x200 keeps the 4:3 aspect ratio
	if bounds.Dx() != 200 || bounds.Dy() != 150 {
		t.Errorf("output = %dx%d, want 200x150", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderPNG(t *testing.T) {
	recipe := &database.Recipe{
		Title:    "png",
		Width:    100,
		Height:   100,
		Fit:      database.FitCenter,
		FileType: database.FileTypePNG,
	}

	result, err := Render(encodeJPEG(t, testImage(300, 200)), recipe)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}

	// Anchored fit covers the box exactly
	bounds := decoded.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("output = %dx%d, want exactly 100x100", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderCorruptSource(t *testing.T) {
	recipe := &database.Recipe{
		Title:    "thumbnail",
		Width:    100,
		Height:   100,
		Fit:      database.FitContain,
		FileType: database.FileTypeJPEG,
	}

	_, err := Render(bytes.NewReader([]byte("not an image")), recipe)
	if err == nil {
		t.Fatal("Render should fail on corrupt source")
	}
}

func TestRenderUnsupportedFileType(t *testing.T) {
	recipe := &database.Recipe{
		Title:    "bad",
		FileType: "tiff",
	}

	_, err := Render(encodeJPEG(t, testImage(10, 10)), recipe)
	if err == nil {
		t.Fatal("Render should fail for unsupported output type")
	}
}

func TestRenderFullPipeline(t *testing.T) {
	recipe := &database.Recipe{
		Title:       "everything",
		Flip:        database.FlipY,
		Rotate:      45,
		RotateCrop:  database.RotateCropMaxArea,
		RotateColor: "255,255,255,255",
		Crop:        "10,10,10,10",
		Width:       64,
		Height:      64,
		Fit:         database.FitCenter,
		FileType:    database.FileTypeJPEG,
		Quality:     90,
	}

	result, err := Render(encodeJPEG(t, testImage(400, 300)), recipe)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Width != 64 || result.Height != 64 {
		t.Errorf("output = %dx%d, want 64x64", result.Width, result.Height)
	}
}
