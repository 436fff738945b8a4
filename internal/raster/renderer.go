// Package raster is a flat-shaded software renderer. Faces are projected
// orthographically, sorted back to front by depth and painted as filled
// polygons.
package raster

import (
	"image"
	"image/color"
	"math"
	"sort"

	"mh-pose-renderer/internal/mathutil"
)

// FillRatio is the share of the smaller viewport side the mesh spans.
const FillRatio = 0.4

// Options controls one render.
type Options struct {
	Width      int
	Height     int
	Zoom       float64 // multiplies the fit scale; <= 0 means 1
	Background color.NRGBA
	Light      *LightConfig // nil uses DefaultLightConfig
}

// Stats counts what happened to the faces handed to Render.
type Stats struct {
	Faces      int
	Painted    int
	Degenerate int // normal shorter than 1e-8
	Invalid    int // fewer than 3 indices or an index out of range
	Offscreen  int
}

// Projection maps mesh space to pixel space.
type Projection struct {
	Center mathutil.Vec3
	Scale  float64
	Width  int
	Height int
}

// NewProjection fits verts into a w×h viewport around their centroid.
func NewProjection(verts [][3]float32, w, h int, zoom float64) Projection {
	if zoom <= 0 {
		zoom = 1
	}
	c := mathutil.Centroid(verts)
	extent := 0.0
	for _, v := range verts {
		d := mathutil.V3(v).Sub(c)
		for k := 0; k < 3; k++ {
			extent = math.Max(extent, math.Abs(d[k]))
		}
	}
	extent = math.Max(extent, 0.001)
	return Projection{
		Center: c,
		Scale:  float64(min(w, h)) * FillRatio * zoom / extent,
		Width:  w,
		Height: h,
	}
}

// Project returns the screen position of v. Y grows downward.
func (p Projection) Project(v [3]float32) [2]float64 {
	return [2]float64{
		(float64(v[0])-p.Center[0])*p.Scale + float64(p.Width)/2,
		float64(p.Height)/2 - (float64(v[1])-p.Center[1])*p.Scale,
	}
}

type paintFace struct {
	depth float64
	color color.NRGBA
	face  []int
}

// Render paints faces of verts into a new image. Callers filter faces by
// group beforehand.
func Render(verts [][3]float32, faces [][]int, opt Options) (*image.NRGBA, Stats) {
	st := Stats{Faces: len(faces)}
	fb := NewFrameBuffer(opt.Width, opt.Height, opt.Background)
	if len(verts) == 0 || len(faces) == 0 {
		return fb.Img, st
	}
	lc := opt.Light
	if lc == nil {
		d := DefaultLightConfig()
		lc = &d
	}

	queue := make([]paintFace, 0, len(faces))
	for _, f := range faces {
		if !validFace(f, len(verts)) {
			st.Invalid++
			continue
		}
		depth, c, ok := ShadeFace(verts, f, lc)
		if !ok {
			st.Degenerate++
			continue
		}
		queue = append(queue, paintFace{depth: depth, color: c, face: f})
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].depth < queue[j].depth })

	proj := NewProjection(verts, opt.Width, opt.Height, opt.Zoom)
	pts := make([][2]float64, 0, 4)
	for _, pf := range queue {
		pts = pts[:0]
		for k, vi := range pf.face {
			if k == 4 {
				break
			}
			pts = append(pts, proj.Project(verts[vi]))
		}
		if fb.FillPolygon(pts, pf.color) {
			st.Painted++
		} else {
			st.Offscreen++
		}
	}
	return fb.Img, st
}

// ShadeFace computes the flat-shaded color and sort depth of a face from
// its first three vertices. ok is false for degenerate faces.
func ShadeFace(verts [][3]float32, face []int, lc *LightConfig) (depth float64, c color.NRGBA, ok bool) {
	if len(face) < 3 {
		return 0, c, false
	}
	p0 := mathutil.V3(verts[face[0]])
	p1 := mathutil.V3(verts[face[1]])
	p2 := mathutil.V3(verts[face[2]])
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Len() < 1e-8 {
		return 0, c, false
	}
	depth = (p0[2] + p1[2] + p2[2]) / 3
	return depth, lc.Shade(n.Normalize()), true
}

func validFace(f []int, n int) bool {
	if len(f) < 3 {
		return false
	}
	for _, vi := range f {
		if vi < 0 || vi >= n {
			return false
		}
	}
	return true
}
