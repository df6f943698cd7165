package render

import "github.com/taigrr/sceneview/pkg/frame"

// Drawer issues the drawing commands of one frame.
type Drawer interface {
	Draw(p frame.Pipeline)
}

// Snapshot renders a single frame of d into a new width×height framebuffer.
func Snapshot(d Drawer, width, height int) *Framebuffer {
	fb := NewFramebuffer(width, height)
	d.Draw(NewRasterizer(fb))
	return fb
}
