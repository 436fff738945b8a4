package raster

import (
	"image/color"
	"math"

	"mh-pose-renderer/internal/mathutil"
)

// SkinColor is the base albedo every rendered face is shaded from.
var SkinColor = color.NRGBA{R: 212, G: 165, B: 116, A: 255}

// LightConfig holds the single directional light.
type LightConfig struct {
	LightDir mathutil.Vec3
	Ambient  float64
	Diffuse  float64
	Base     color.NRGBA
}

// DefaultLightConfig returns the fixed key light used for previews.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mathutil.Vec3{0.5, 0.8, 1.0}.Normalize(),
		Ambient:  0.3,
		Diffuse:  0.7,
		Base:     SkinColor,
	}
}

// Intensity returns min(1, ambient + diffuse·max(0, n·l)) for a unit normal.
func (lc *LightConfig) Intensity(normal mathutil.Vec3) float64 {
	ndl := math.Max(0, normal.Dot(lc.LightDir))
	return math.Min(1, lc.Ambient+lc.Diffuse*ndl)
}

// Shade scales the base color by the face intensity. Channels truncate.
func (lc *LightConfig) Shade(normal mathutil.Vec3) color.NRGBA {
	i := lc.Intensity(normal)
	return color.NRGBA{
		R: clamp255(float64(lc.Base.R) * i),
		G: clamp255(float64(lc.Base.G) * i),
		B: clamp255(float64(lc.Base.B) * i),
		A: 255,
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
