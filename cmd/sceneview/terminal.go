package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/sceneview/pkg/render"
	"github.com/taigrr/sceneview/pkg/scene"
)

// runTerminal redraws the scene with the software pipeline at fps frames
// per second until Esc, Ctrl+C or SIGTERM.
func runTerminal(d render.Drawer, cam scene.Camera, fps int) error {
	if fps <= 0 {
		fps = 30
	}

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Only the latest size matters.
	resize := make(chan [2]int, 1)
	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				select {
				case <-resize:
				default:
				}
				resize <- [2]int{ev.Width, ev.Height}
			case uv.KeyPressEvent:
				if ev.MatchString("escape") || ev.MatchString("ctrl+c") {
					cancel()
				}
			}
		}
	}()

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fb := render.NewFramebuffer(termRenderer.FramebufferSize())
	rasterizer := render.NewRasterizer(fb)
	fit := func() {
		rasterizer.SetViewport(render.FitViewport(fb.Width, fb.Height, cam.Width, cam.Height))
	}
	fit()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		case size := <-resize:
			width, height = size[0], size[1]
			term.Erase()
			term.Resize(width, height)
			termRenderer = render.NewTerminalRenderer(term, width, height)
			fb = render.NewFramebuffer(termRenderer.FramebufferSize())
			rasterizer.SetFramebuffer(fb)
			fit()
		case <-ticker.C:
		}

		d.Draw(rasterizer)

		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}
	}
}
