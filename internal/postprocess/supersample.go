// Package postprocess resamples rendered frames and assembles them into
// contact-sheet grids.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales a supersampled frame down to w×h with CatmullRom.
// Frames already at or below the target size are returned unchanged.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() <= w && b.Dy() <= h) {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
