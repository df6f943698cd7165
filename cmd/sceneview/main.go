// sceneview - Fixed-function 3D scene viewer
// Shows an XML scene description in an OpenGL window or in the terminal,
// renders it to a PNG, or exports it as binary glTF.
//
// Controls:
//
//	Esc     - Quit
//	Ctrl+C  - Quit (terminal backend)
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taigrr/sceneview/pkg/export"
	"github.com/taigrr/sceneview/pkg/frame"
	"github.com/taigrr/sceneview/pkg/glview"
	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/render"
	"github.com/taigrr/sceneview/pkg/scene"
)

var (
	shading    = frame.ShadingSmooth
	backend    = flag.String("backend", "gl", "Display backend: gl or term")
	outPath    = flag.String("o", "", "Render one frame to a PNG file and exit")
	exportPath = flag.String("export", "", "Write the baked scene as binary glTF (.glb) and exit")
	targetFPS  = flag.Int("fps", 30, "Target FPS (term backend)")
	verbose    = flag.Bool("v", false, "Enable debug logging")
)

func init() {
	flag.Var(&shading, "shading", "Shading mode: flat, smooth or buffered")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sceneview - Fixed-function 3D scene viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sceneview [options] <scene.xml>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
		fmt.Fprintf(os.Stderr, "  Ctrl+C      - Quit (term backend)\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	setupLogging(*verbose)

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(scenePath string) error {
	s, err := scene.Load(scenePath)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}

	renderer, err := frame.NewRenderer(s, shading)
	if err != nil {
		return fmt.Errorf("prepare renderer: %w", err)
	}

	if *exportPath != "" || *outPath != "" {
		if *exportPath != "" {
			if err := export.WriteGLB(*exportPath, s, renderer.Normals()); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
		if *outPath != "" {
			fb := render.Snapshot(renderer, s.Camera.Width, s.Camera.Height)
			if err := fb.SavePNG(*outPath); err != nil {
				return fmt.Errorf("save png: %w", err)
			}
			logging.Logger().Info("frame saved", "path", *outPath, "shading", renderer.Shading())
		}
		return nil
	}

	logging.Logger().Info("backend selected", "backend", *backend, "shading", renderer.Shading())
	switch *backend {
	case "gl":
		return runWindow(filepath.Base(scenePath), s, renderer)
	case "term", "terminal":
		return runTerminal(renderer, s.Camera, *targetFPS)
	default:
		return fmt.Errorf("unknown backend %q (use gl or term)", *backend)
	}
}

func runWindow(title string, s *scene.Scene, renderer *frame.Renderer) error {
	win, err := glview.Open("sceneview - "+title, s.Camera.Width, s.Camera.Height)
	if err != nil {
		return err
	}
	defer win.Close()

	pipeline := glview.NewPipeline()
	defer pipeline.Release()

	win.Run(func() {
		renderer.Draw(pipeline)
		pipeline.CheckErrors()
	})
	return nil
}
