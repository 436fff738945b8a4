// Package request decodes render requests. Decoding never fails: malformed
// sections fall back to their defaults and are reported as warnings.
package request

import (
	"image/color"

	"mh-pose-renderer/internal/targets"
)

// Mode selects how rendered poses are returned.
type Mode string

const (
	List Mode = "LIST" // one image per pose
	Grid Mode = "GRID" // all poses tiled into one image
)

const (
	DefaultAge         = 25.0
	DefaultViewSize    = 512
	DefaultZoom        = 1.0
	DefaultGridColumns = 2
	MaxViewSize        = 4096
	MaxGridColumns     = 256
)

// DefaultBackground is the request background when bg_color is absent.
var DefaultBackground = color.NRGBA{R: 40, G: 40, B: 40, A: 255}

// Pose is one frame: per-bone rotations in degrees (rx, ry, rz) plus a
// whole-body rotation applied about the centroid after skinning.
type Pose struct {
	Bones         map[string][3]float64
	ModelRotation [3]float64
}

// Request is everything needed for one generation call.
type Request struct {
	AgeYears    float64
	Sliders     targets.Sliders // Age normalized
	Poses       []Pose
	Width       int
	Height      int
	Zoom        float64
	Mode        Mode
	GridColumns int
	Background  color.NRGBA
}

// Default returns the request an empty payload decodes to.
func Default() Request {
	return Request{
		AgeYears:    DefaultAge,
		Sliders:     targets.DefaultSliders(),
		Poses:       []Pose{{Bones: map[string][3]float64{}}},
		Width:       DefaultViewSize,
		Height:      DefaultViewSize,
		Zoom:        DefaultZoom,
		Mode:        List,
		GridColumns: DefaultGridColumns,
		Background:  DefaultBackground,
	}
}
