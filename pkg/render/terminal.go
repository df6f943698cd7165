package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each terminal row shows two framebuffer rows through the upper
// half block, foreground on top and background below.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(col, topY)),
					Bg: rgbaToColor(fb.GetPixel(col, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

func rgbaToColor(c Color) color.Color {
	if c.A == 0 {
		return nil // transparent: leave the terminal default
	}
	return c
}

// TerminalRenderer presents framebuffers on a terminal.
type TerminalRenderer struct {
	term          *uv.Terminal
	width, height int // in cells
}

// NewTerminalRenderer creates a renderer for a terminal of width×height
// cells.
func NewTerminalRenderer(term *uv.Terminal, width, height int) *TerminalRenderer {
	return &TerminalRenderer{term: term, width: width, height: height}
}

// FramebufferSize returns the framebuffer dimensions that fill the terminal.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.width, t.height * 2
}

// Render copies fb into the terminal's cell buffer.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.term, uv.Rect(0, 0, t.width, t.height))
}

// Flush writes pending cell changes to the terminal.
func (t *TerminalRenderer) Flush() error {
	return t.term.Display()
}

// FitViewport returns the largest rectangle with the aspect ratio of a
// width×height image that fits centered in a fbWidth×fbHeight framebuffer.
func FitViewport(fbWidth, fbHeight, width, height int) (x, y, w, h int) {
	if width <= 0 || height <= 0 {
		return 0, 0, fbWidth, fbHeight
	}
	w, h = fbWidth, fbWidth*height/width
	if h > fbHeight {
		w, h = fbHeight*width/height, fbHeight
	}
	return (fbWidth - w) / 2, (fbHeight - h) / 2, w, h
}
