package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
)

// Placeholder returns a solid-color image of exactly width x height pixels.
// The recorder never renders real content; callers of the protocol only
// require that the dimensions match the request.
func Placeholder(width, height int, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	return img
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
