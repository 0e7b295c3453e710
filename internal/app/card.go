package app

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/inertial_pdr/internal/pdr"
)

// Status card geometry. The plot is a scaled copy of the viewport with the
// indicator dot and a heading tick.
const (
	cardWidth   = 320
	cardHeight  = 240
	lineHeight  = 13
	plotSize    = 96
	plotMargin  = 8
	dotRadius   = 4
	headingTick = 10
	cardLogRows = 4
)

var (
	cardBackground = color.RGBA{0x18, 0x18, 0x1b, 0xff}
	cardText       = color.RGBA{0xe4, 0xe4, 0xe7, 0xff}
	cardWarn       = color.RGBA{0xf8, 0x71, 0x71, 0xff}
	cardDot        = color.RGBA{0x38, 0xbd, 0xf8, 0xff}
	cardArrow      = color.RGBA{0xfa, 0xcc, 0x15, 0xff}
	cardFrame      = color.RGBA{0x52, 0x52, 0x5b, 0xff}
)

// renderCard draws snap as a small status image.
func renderCard(snap pdr.Snapshot) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{cardBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cardText},
		Face: basicfont.Face7x13,
	}

	y := lineHeight
	for _, line := range snap.Info() {
		if line == snap.PermissionError {
			drawer.Src = &image.Uniform{cardWarn}
		}
		drawer.Dot = fixed.P(4, y)
		drawer.DrawString(line)
		y += lineHeight
	}
	drawer.Src = &image.Uniform{cardText}

	for _, name := range snap.Disabled {
		drawer.Dot = fixed.P(4, y)
		drawer.DrawString("stream off: " + name)
		y += lineHeight
	}

	y += lineHeight / 2
	for i, line := range snap.Log {
		if i == cardLogRows {
			break
		}
		drawer.Dot = fixed.P(4, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	plotRect := image.Rect(cardWidth-plotSize-plotMargin, cardHeight-plotSize-plotMargin,
		cardWidth-plotMargin, cardHeight-plotMargin)
	drawFrame(img, plotRect, cardFrame)

	cx, cy := plotPoint(plotRect, snap.Position.X, snap.Position.Y, snap.Bounds.X, snap.Bounds.Y)
	fillCircle(img, cx, cy, dotRadius, cardDot)

	rad := snap.Heading * math.Pi / 180
	for r := dotRadius; r <= headingTick; r++ {
		img.Set(cx+int(math.Round(math.Sin(rad)*float64(r))),
			cy-int(math.Round(math.Cos(rad)*float64(r))), cardArrow)
	}
	return img
}

// plotPoint maps a tracker position into rect. Up on the plot is +Y.
func plotPoint(rect image.Rectangle, x, y, boundX, boundY float64) (int, int) {
	half := float64(rect.Dx()) / 2
	scale := func(v, bound float64) float64 {
		if bound <= 0 {
			return 0
		}
		return v / bound * (half - dotRadius)
	}
	mid := rect.Min.Add(image.Pt(rect.Dx()/2, rect.Dy()/2))
	return mid.X + int(math.Round(scale(x, boundX))), mid.Y - int(math.Round(scale(y, boundY)))
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

func drawFrame(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// writeCard encodes the status card as PNG.
func writeCard(w io.Writer, snap pdr.Snapshot) error {
	return png.Encode(w, renderCard(snap))
}
