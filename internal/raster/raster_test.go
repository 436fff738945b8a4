package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mh-pose-renderer/internal/mathutil"
)

var bg = color.NRGBA{R: 40, G: 40, B: 40, A: 255}

func TestShadeFaceSingleTriangle(t *testing.T) {
	verts := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	lc := DefaultLightConfig()

	depth, c, ok := ShadeFace(verts, []int{0, 1, 2}, &lc)
	require.True(t, ok)
	assert.Equal(t, 0.0, depth)
	// 0.3 + 0.7·(1/|(0.5,0.8,1)|) ≈ 0.809175
	assert.InDelta(t, 0.809175, lc.Intensity(mathutil.Vec3{0, 0, 1}), 1e-6)
	assert.Equal(t, color.NRGBA{R: 171, G: 133, B: 93, A: 255}, c)
}

func TestRenderSingleTriangle(t *testing.T) {
	verts := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	img, st := Render(verts, [][]int{{0, 1, 2}}, Options{Width: 100, Height: 100, Background: bg})

	require.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 1, st.Painted)
	// Scale is 100·0.4/(2/3) = 60; the triangle lands on (30,70) (90,70) (30,10).
	assert.Equal(t, color.NRGBA{R: 171, G: 133, B: 93, A: 255}, img.NRGBAAt(40, 55))
	assert.Equal(t, bg, img.NRGBAAt(5, 5))
	assert.Equal(t, bg, img.NRGBAAt(80, 20))
}

func TestRenderSharedEdgeHasNoSeam(t *testing.T) {
	// A unit square split along its diagonal into two coplanar triangles.
	verts := [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	black := color.NRGBA{A: 255}
	img, st := Render(verts, [][]int{{0, 1, 2}, {0, 2, 3}}, Options{Width: 64, Height: 64, Background: black})
	require.Equal(t, 2, st.Painted)

	skin := color.NRGBA{R: 171, G: 133, B: 93, A: 255}
	// Scale is 64·0.4 = 25.6, so the diagonal runs from (6.4,57.6) to
	// (57.6,6.4) and bisects every pixel with x+y = 63.
	for x := 8; x < 56; x++ {
		assert.Equal(t, skin, img.NRGBAAt(x, 63-x), "diagonal pixel (%d,%d)", x, 63-x)
		assert.Equal(t, skin, img.NRGBAAt(x, 62-x), "pixel above diagonal (%d,%d)", x, 62-x)
		assert.Equal(t, skin, img.NRGBAAt(x, 64-x), "pixel below diagonal (%d,%d)", x, 64-x)
	}
}

func TestFillPolygonIsAllOrNothing(t *testing.T) {
	fb := NewFrameBuffer(16, 16, bg)
	red := color.NRGBA{R: 255, A: 255}
	require.True(t, fb.FillPolygon([][2]float64{{2.3, 2.3}, {13.7, 2.3}, {13.7, 13.7}, {2.3, 13.7}}, red))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := fb.Img.NRGBAAt(x, y)
			assert.True(t, c == red || c == bg, "pixel (%d,%d) = %v is blended", x, y, c)
		}
	}
	// Edge pixels are 70% covered; the corners only 49%.
	assert.Equal(t, red, fb.Img.NRGBAAt(2, 8))
	assert.Equal(t, red, fb.Img.NRGBAAt(13, 8))
	assert.Equal(t, bg, fb.Img.NRGBAAt(2, 2))
	assert.Equal(t, bg, fb.Img.NRGBAAt(1, 8))
	assert.Equal(t, bg, fb.Img.NRGBAAt(14, 8))
}

func TestRenderPaintersOrder(t *testing.T) {
	// Two overlapping quads; the nearer one (larger Z) must win.
	verts := [][3]float32{
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
	}
	near := []int{0, 1, 2, 3}
	far := []int{4, 5, 6, 7}
	red := LightConfig{LightDir: mathutil.Vec3{0, 0, 1}, Ambient: 1, Base: color.NRGBA{R: 200, A: 255}}

	for _, order := range [][][]int{{near, far}, {far, near}} {
		img, st := Render(verts, order, Options{Width: 64, Height: 64, Background: bg, Light: &red})
		assert.Equal(t, 2, st.Painted)
		assert.Equal(t, color.NRGBA{R: 200, A: 255}, img.NRGBAAt(32, 32))
	}
}

func TestRenderSkipsBadFaces(t *testing.T) {
	verts := [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}}
	faces := [][]int{
		{0, 1, 2}, // collinear
		{0, 1},    // too short
		{0, 1, 9}, // out of range
		{0, 1, 3},
	}
	_, st := Render(verts, faces, Options{Width: 32, Height: 32, Background: bg})
	assert.Equal(t, 4, st.Faces)
	assert.Equal(t, 1, st.Degenerate)
	assert.Equal(t, 2, st.Invalid)
	assert.Equal(t, 1, st.Painted)
}

func TestRenderEmptyIsBackground(t *testing.T) {
	img, st := Render(nil, nil, Options{Width: 8, Height: 4, Background: bg})
	assert.Zero(t, st.Painted)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.Equal(t, bg, img.NRGBAAt(7, 3))
}

func TestProjectionZoom(t *testing.T) {
	verts := [][3]float32{{-1, 0, 0}, {1, 0, 0}}
	p := NewProjection(verts, 200, 100, 2)
	assert.InDelta(t, 80.0, p.Scale, 1e-9)
	assert.Equal(t, [2]float64{180, 50}, p.Project([3]float32{1, 0, 0}))

	flat := NewProjection([][3]float32{{3, 3, 3}}, 100, 100, 0)
	assert.InDelta(t, 40/0.001, flat.Scale, 1e-6)
}

func TestIntensityClampsToOne(t *testing.T) {
	lc := LightConfig{LightDir: mathutil.Vec3{0, 0, 1}, Ambient: 0.5, Diffuse: 0.7, Base: SkinColor}
	assert.Equal(t, 1.0, lc.Intensity(mathutil.Vec3{0, 0, 1}))
	assert.Equal(t, 0.5, lc.Intensity(mathutil.Vec3{0, 0, -1}))
	assert.Equal(t, SkinColor, lc.Shade(mathutil.Vec3{0, 0, 1}))
}
