// Package render is a software implementation of the fixed-function
// pipeline. It rasterizes into a Framebuffer that can be written out as a
// PNG or drawn to a terminal with half-block cells.
package render

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// RGB creates an opaque color from RGB values.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// ColorFromUnit converts a 0-1 color triple to an opaque Color.
func ColorFromUnit(c math3d.Vec3) Color {
	c = c.Clamp01()
	return RGB(uint8(c.X*255+0.5), uint8(c.Y*255+0.5), uint8(c.Z*255+0.5))
}

// ColorFromBytes converts a 0-255 color triple, as scene files store the
// background, to an opaque Color.
func ColorFromBytes(c math3d.Vec3) Color {
	return ColorFromUnit(c.Scale(1.0 / 255))
}

// Framebuffer is a row-major grid of pixels with (0, 0) at the top left.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// For terminal output the height should be 2x the terminal rows.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c Color) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// GetPixel returns the color at (x, y), or transparent black out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return Color{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
