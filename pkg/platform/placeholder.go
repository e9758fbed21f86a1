package platform

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PlaceholderText is the message adapters show in place of a view whose
// name has no registered factory.
func PlaceholderText(name string) string {
	return "View named " + name + " not found"
}

// Placeholder colors.
var (
	placeholderBackground = color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF}
	placeholderBorder     = color.RGBA{R: 0xD0, G: 0x3A, B: 0x3A, A: 0xFF}
	placeholderInk        = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
)

// RenderPlaceholder draws PlaceholderText(name) centered on a width x
// height bitmap with a one pixel border. Text wider than the bitmap is
// clipped. Non-positive sizes yield an empty image.
func RenderPlaceholder(name string, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	for x := 0; x < width; x++ {
		img.SetRGBA(x, 0, placeholderBorder)
		img.SetRGBA(x, height-1, placeholderBorder)
	}
	for y := 0; y < height; y++ {
		img.SetRGBA(0, y, placeholderBorder)
		img.SetRGBA(width-1, y, placeholderBorder)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderInk),
		Face: face,
	}
	text := PlaceholderText(name)
	advance := d.MeasureString(text).Ceil()
	metrics := face.Metrics()
	textHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := (width - advance) / 2
	if x < 1 {
		x = 1
	}
	baseline := (height-textHeight)/2 + metrics.Ascent.Ceil()
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
	return img
}
