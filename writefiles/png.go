package writefiles

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// RenderImage draws the palette at its field's resolution and scales the
// result to width x height with bilinear filtering. Row 0 of the image is
// the top of the field.
func RenderImage(p *Palette, width, height int) (img *image.RGBA) {
	var (
		W, H = p.field.Dims()
		src  = image.NewRGBA(image.Rect(0, 0, W, H))
	)
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			u := (float32(x) + 0.5) / float32(W)
			v := (float32(y) + 0.5) / float32(H)
			src.SetRGBA(x, H-1-y, p.At(u, v))
		}
	}
	if width == W && height == H {
		return src
	}
	img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(img, img.Bounds(), src, src.Bounds(), draw.Src, nil)
	return
}

func EncodePNG(w io.Writer, p *Palette, width, height int) (err error) {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	return png.Encode(w, RenderImage(p, width, height))
}

func WritePNG(path string, p *Palette, width, height int) (err error) {
	var (
		f *os.File
	)
	if f, err = os.Create(path); err != nil {
		return
	}
	if err = EncodePNG(f, p, width, height); err != nil {
		f.Close()
		return
	}
	return f.Close()
}
