// Package engine renders image variants from recipes.
//
// A render decodes the source image (JPEG, PNG, GIF and WebP sources are
// supported), applies the recipe's processing steps in a fixed order -
// flip, rotate, crop, resize - and encodes the result as JPEG or PNG.
//
// The resize step supports two families of fit behavior: "fit" scales the
// image down to the recipe bounding box while preserving the whole image,
// and the anchored modes (center, top, left, right, bottom) scale the image
// to cover the box and crop around the named anchor.
package engine
