// Package glview shows a scene in a GLFW window through the OpenGL 2.1
// fixed-function pipeline.
package glview

import (
	"fmt"
	"runtime"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/taigrr/sceneview/pkg/logging"
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

// Window is a GLFW window with a current OpenGL 2.1 context.
type Window struct {
	win *glfw.Window
}

// Open initializes GLFW, creates a fixed-size window with an OpenGL 2.1
// context and makes the context current. Escape closes the window.
func Open(title string, width, height int) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("init gl: %w", err)
	}
	glfw.SwapInterval(1)

	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	logging.Logger().Info("window opened",
		"width", width,
		"height", height,
		"gl_version", gl.GoStr(gl.GetString(gl.VERSION)),
		"gl_renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)
	return &Window{win: win}, nil
}

// Run calls draw once per frame, then swaps buffers and polls events,
// until the window is asked to close.
func (w *Window) Run(draw func()) {
	for !w.win.ShouldClose() {
		fw, fh := w.win.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fw), int32(fh))

		draw()

		w.win.SwapBuffers()
		glfw.PollEvents()
	}
}

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}
