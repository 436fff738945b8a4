package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// EmptyGridSize is the side of the placeholder returned for an empty grid.
const EmptyGridSize = 512

// GridLayout returns the column and row count for n cells.
// Columns are capped at n; columns < 1 is treated as 1.
func GridLayout(n, columns int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = max(1, min(columns, n))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// MakeGrid tiles images row-major. Cell size is taken from the first image;
// other images are drawn at their own size, clipped to their cell.
func MakeGrid(images []*image.NRGBA, columns int, bg color.NRGBA) *image.NRGBA {
	if len(images) == 0 {
		canvas := image.NewNRGBA(image.Rect(0, 0, EmptyGridSize, EmptyGridSize))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		return canvas
	}
	cols, rows := GridLayout(len(images), columns)
	cw, ch := images[0].Bounds().Dx(), images[0].Bounds().Dy()

	canvas := image.NewNRGBA(image.Rect(0, 0, cols*cw, rows*ch))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for i, img := range images {
		if img == nil {
			continue
		}
		x, y := (i%cols)*cw, (i/cols)*ch
		cell := image.Rect(x, y, x+cw, y+ch)
		draw.Draw(canvas, cell, img, img.Bounds().Min, draw.Over)
	}
	return canvas
}
