package viz

import (
	"image"
	"image/color"
	"image/gif"
	"os"
)

// CanvasImage rasterises the canvas dots into a two-colour image with each
// dot drawn as a scale x scale square.
func CanvasImage(c *Canvas, scale int) *image.Paletted {
	scale = max(scale, 1)
	dw, dh := c.DotWidth(), c.DotHeight()
	img := image.NewPaletted(image.Rect(0, 0, dw*scale, dh*scale), color.Palette{color.Black, color.White})
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < scale; py++ {
				for px := 0; px < scale; px++ {
					img.SetColorIndex(x*scale+px, y*scale+py, 1)
				}
			}
		}
	}
	return img
}

// SaveGIF writes frames as a looping animation, delay in 1/100 s per frame.
func SaveGIF(path string, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
