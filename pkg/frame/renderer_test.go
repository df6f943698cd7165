package frame

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/scene"
)

// recorder implements Pipeline by logging every command.
type recorder struct {
	calls   []string
	normals []math3d.Vec3
	verts   []math3d.Vec3
	uploads []*Buffer
}

func (r *recorder) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Clear(bg math3d.Vec3)   { r.log("clear %v", bg) }
func (r *recorder) SetCamera(scene.Camera) { r.log("camera") }
func (r *recorder) SetLights(math3d.Vec3, []scene.PointLight) {
	r.log("lights")
}
func (r *recorder) PushMatrix()                        { r.log("push") }
func (r *recorder) PopMatrix()                         { r.log("pop") }
func (r *recorder) Translate(v math3d.Vec3)            { r.log("translate %v", v) }
func (r *recorder) Rotate(a float64, axis math3d.Vec3) { r.log("rotate %v %v", a, axis) }
func (r *recorder) Scale(v math3d.Vec3)                { r.log("scale %v", v) }
func (r *recorder) SetMaterial(m scene.Material)       { r.log("material %v", m.Diffuse) }
func (r *recorder) SetPolygonMode(t scene.MeshType)    { r.log("mode %v", t) }
func (r *recorder) Begin()                             { r.log("begin") }
func (r *recorder) End()                               { r.log("end") }
func (r *recorder) Normal(n math3d.Vec3)               { r.normals = append(r.normals, n) }
func (r *recorder) Vertex(p math3d.Vec3)               { r.verts = append(r.verts, p) }
func (r *recorder) UploadBuffer(b *Buffer) BufferHandle {
	r.uploads = append(r.uploads, b)
	r.log("upload %d", len(r.uploads)-1)
	return BufferHandle(len(r.uploads) - 1)
}
func (r *recorder) DrawBuffer(h BufferHandle) { r.log("draw %d", h) }

func loadScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Load("../scene/testdata/two_meshes.xml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestDrawCommandOrder(t *testing.T) {
	s := loadScene(t)
	r, err := NewRenderer(s, ShadingSmooth)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := &recorder{}
	r.Draw(rec)

	want := []string{
		"clear {10 20 30}",
		"camera",
		"lights",
		// Mesh 1: "s1 t2" is issued t2 first.
		"push",
		"translate {0 2 0}",
		"scale {2 2 2}",
		"mode Solid",
		"material {1 0 0}",
		"begin",
		"end",
		"pop",
		// Mesh 2: "r1 t1" is issued t1 first.
		"push",
		"translate {1 0 0}",
		"rotate 90 {0 0 1}",
		"mode Wireframe",
		"material {0 0 1}",
		"begin",
		"end",
		"pop",
	}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("calls:\n%s\nwant:\n%s", strings.Join(rec.calls, "\n"), strings.Join(want, "\n"))
	}
	if len(rec.verts) != 3*s.TriangleCount() {
		t.Errorf("got %d vertices, want %d", len(rec.verts), 3*s.TriangleCount())
	}
	if len(rec.normals) != len(rec.verts) {
		t.Errorf("got %d normals for %d vertices", len(rec.normals), len(rec.verts))
	}
}

func TestDrawIsRepeatable(t *testing.T) {
	s := loadScene(t)
	for _, shading := range []Shading{ShadingSmooth, ShadingFlat, ShadingBuffered} {
		t.Run(shading.String(), func(t *testing.T) {
			r, err := NewRenderer(s, shading)
			if err != nil {
				t.Fatalf("NewRenderer: %v", err)
			}
			first, second := &recorder{}, &recorder{}
			r.Draw(first)
			r.Draw(second)

			if shading == ShadingBuffered {
				// Uploads happen once; later frames only draw.
				if len(second.uploads) != 0 {
					t.Errorf("second frame uploaded %d buffers", len(second.uploads))
				}
				first.calls = slices.DeleteFunc(first.calls, func(c string) bool {
					return strings.HasPrefix(c, "upload")
				})
			}
			if !slices.Equal(first.calls, second.calls) {
				t.Errorf("frames differ:\n%v\n%v", first.calls, second.calls)
			}
			if !slices.Equal(first.verts, second.verts) || !slices.Equal(first.normals, second.normals) {
				t.Error("vertex stream differs between frames")
			}
		})
	}
}

func TestSmoothNormalsShared(t *testing.T) {
	s := loadScene(t)
	r, err := NewRenderer(s, ShadingSmooth)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := &recorder{}
	r.Draw(rec)

	// Vertex 2 (0-based 1) is emitted by mesh 1 faces 1 and 2 and by mesh 2;
	// every emission carries the same accumulated normal.
	var seen []math3d.Vec3
	for i, v := range rec.verts {
		if v == s.Vertices[1] {
			seen = append(seen, rec.normals[i])
		}
	}
	if len(seen) != 3 {
		t.Fatalf("vertex 2 emitted %d times, want 3", len(seen))
	}
	for _, n := range seen[1:] {
		if n != seen[0] {
			t.Errorf("normals differ across emissions: %v vs %v", n, seen[0])
		}
	}
	if seen[0].Normalize() != math3d.V3(0, 0, 1) {
		t.Errorf("normal direction = %v, want +Z", seen[0].Normalize())
	}
}

func TestFlatNormalsPerFace(t *testing.T) {
	s := loadScene(t)
	r, err := NewRenderer(s, ShadingFlat)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := &recorder{}
	r.Draw(rec)

	for i := 0; i < len(rec.normals); i += 3 {
		n := rec.normals[i]
		if rec.normals[i+1] != n || rec.normals[i+2] != n {
			t.Errorf("face %d corners disagree: %v", i/3, rec.normals[i:i+3])
		}
		if n != math3d.V3(0, 0, 1) {
			t.Errorf("face %d normal = %v, want (0,0,1)", i/3, n)
		}
	}
}

func TestBufferedUploadsEachMesh(t *testing.T) {
	s := loadScene(t)
	r, err := NewRenderer(s, ShadingBuffered)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := &recorder{}
	r.Draw(rec)

	if len(rec.uploads) != len(s.Meshes) {
		t.Fatalf("uploaded %d buffers, want %d", len(rec.uploads), len(s.Meshes))
	}
	for i, m := range s.Meshes {
		b := rec.uploads[i]
		if b.VertexCount() != 3*len(m.Faces) {
			t.Errorf("mesh %d buffer has %d vertices, want %d", i, b.VertexCount(), 3*len(m.Faces))
		}
		if len(b.Normals) != len(b.Positions) {
			t.Errorf("mesh %d: %d normal floats for %d position floats", i, len(b.Normals), len(b.Positions))
		}
	}
	if len(rec.verts) != 0 {
		t.Errorf("buffered mode emitted %d immediate vertices", len(rec.verts))
	}
	if !slices.Contains(rec.calls, "draw 1") {
		t.Errorf("calls %v missing draw of buffer 1", rec.calls)
	}
}

func TestParseShading(t *testing.T) {
	tests := []struct {
		in      string
		want    Shading
		wantErr bool
	}{
		{"smooth", ShadingSmooth, false},
		{"FLAT", ShadingFlat, false},
		{"buffered", ShadingBuffered, false},
		{"vbo", ShadingBuffered, false},
		{"phong", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var s Shading
			err := s.Set(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && s != tc.want {
				t.Errorf("Set(%q) = %v, want %v", tc.in, s, tc.want)
			}
		})
	}
}

func TestNormalsExposed(t *testing.T) {
	s := loadScene(t)
	tests := []struct {
		shading Shading
		want    bool
	}{
		{ShadingSmooth, true},
		{ShadingBuffered, true},
		{ShadingFlat, false},
	}
	for _, tc := range tests {
		t.Run(tc.shading.String(), func(t *testing.T) {
			r, err := NewRenderer(s, tc.shading)
			if err != nil {
				t.Fatalf("NewRenderer: %v", err)
			}
			acc := r.Normals()
			if (acc != nil) != tc.want {
				t.Fatalf("Normals() = %v, want present: %v", acc, tc.want)
			}
			if acc != nil && acc.Len() != len(s.Vertices) {
				t.Errorf("Normals().Len() = %d, want %d", acc.Len(), len(s.Vertices))
			}
		})
	}
}

func TestNewRendererLogsStatistics(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { logging.SetLogger(nil) })

	if _, err := NewRenderer(loadScene(t), ShadingSmooth); err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"renderer ready", "shading=smooth", "meshes=2", "triangles=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
