package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// coverageCutoff is the mask value at or above which a pixel counts as
// inside a polygon. Half coverage rounds down to 127, so a pixel split
// evenly by a shared edge is claimed by both faces.
const coverageCutoff = 0x7f

// FrameBuffer is the paint target. Faces overwrite earlier faces in call
// order; there is no depth buffer. Edge pixels are either fully painted or
// left alone, so faces sharing an edge leave no seam.
type FrameBuffer struct {
	Width  int
	Height int
	Img    *image.NRGBA

	ras  vector.Rasterizer
	mask *image.Alpha
}

// NewFrameBuffer allocates a w×h image cleared to bg.
func NewFrameBuffer(w, h int, bg color.NRGBA) *FrameBuffer {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &FrameBuffer{Width: w, Height: h, Img: img, mask: image.NewAlpha(img.Bounds())}
}

// FillPolygon paints the closed polygon pts in c. The rasterizer only
// covers the polygon's clipped bounding box.
func (fb *FrameBuffer) FillPolygon(pts [][2]float64, c color.NRGBA) bool {
	if len(pts) < 3 {
		return false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p[0])
		maxX = math.Max(maxX, p[0])
		minY = math.Min(minY, p[1])
		maxY = math.Max(maxY, p[1])
	}
	x0 := clampInt(int(math.Floor(minX)), 0, fb.Width)
	y0 := clampInt(int(math.Floor(minY)), 0, fb.Height)
	x1 := clampInt(int(math.Ceil(maxX)), 0, fb.Width)
	y1 := clampInt(int(math.Ceil(maxY)), 0, fb.Height)
	if x1 <= x0 || y1 <= y0 {
		return false
	}

	ox, oy := float64(x0), float64(y0)
	fb.ras.Reset(x1-x0, y1-y0)
	fb.ras.MoveTo(float32(pts[0][0]-ox), float32(pts[0][1]-oy))
	for _, p := range pts[1:] {
		fb.ras.LineTo(float32(p[0]-ox), float32(p[1]-oy))
	}
	fb.ras.ClosePath()

	r := image.Rect(x0, y0, x1, y1)
	fb.ras.DrawOp = draw.Src
	fb.ras.Draw(fb.mask, r, image.Opaque, image.Point{})
	for y := y0; y < y1; y++ {
		row := fb.mask.Pix[fb.mask.PixOffset(x0, y):fb.mask.PixOffset(x1, y)]
		for i, a := range row {
			if a >= coverageCutoff {
				row[i] = 0xff
			} else {
				row[i] = 0
			}
		}
	}
	draw.DrawMask(fb.Img, r, image.NewUniform(c), image.Point{}, fb.mask, r.Min, draw.Over)
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
