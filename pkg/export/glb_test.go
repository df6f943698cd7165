package export

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/sceneview/pkg/scene"
)

func loadScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Load("../scene/testdata/two_meshes.xml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func accessorCount(doc *gltf.Document, idx int) int {
	return int(doc.Accessors[idx].Count)
}

func TestBuild(t *testing.T) {
	s := loadScene(t)
	doc, err := Build(s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(doc.Meshes) != len(s.Meshes) {
		t.Fatalf("meshes = %d, want %d", len(doc.Meshes), len(s.Meshes))
	}
	if len(doc.Materials) != len(s.Meshes) {
		t.Errorf("materials = %d, want %d", len(doc.Materials), len(s.Meshes))
	}

	tests := []struct {
		mesh     int
		vertices int
		indices  int
		mode     gltf.PrimitiveMode
	}{
		{0, 4, 6, gltf.PrimitiveTriangles},
		{1, 3, 6, gltf.PrimitiveLines},
	}
	for _, tc := range tests {
		prim := doc.Meshes[tc.mesh].Primitives[0]
		if got := accessorCount(doc, prim.Attributes[gltf.POSITION]); got != tc.vertices {
			t.Errorf("mesh %d: vertices = %d, want %d", tc.mesh, got, tc.vertices)
		}
		if got := accessorCount(doc, prim.Attributes[gltf.NORMAL]); got != tc.vertices {
			t.Errorf("mesh %d: normals = %d, want %d", tc.mesh, got, tc.vertices)
		}
		if got := accessorCount(doc, *prim.Indices); got != tc.indices {
			t.Errorf("mesh %d: indices = %d, want %d", tc.mesh, got, tc.indices)
		}
		if prim.Mode != tc.mode {
			t.Errorf("mesh %d: mode = %v, want %v", tc.mesh, prim.Mode, tc.mode)
		}
	}
}

func TestBuildBakesTransforms(t *testing.T) {
	doc, err := Build(loadScene(t), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Mesh 1 is the unit square scaled by 2, then moved up by 2.
	acc := doc.Accessors[doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]]
	wantMin := []float64{0, 2, 0}
	wantMax := []float64{2, 4, 0}
	for i := range 3 {
		if math.Abs(acc.Min[i]-wantMin[i]) > 1e-6 || math.Abs(acc.Max[i]-wantMax[i]) > 1e-6 {
			t.Fatalf("bounds = %v..%v, want %v..%v", acc.Min, acc.Max, wantMin, wantMax)
		}
	}
}

func TestBuildCamera(t *testing.T) {
	s := loadScene(t)
	doc, err := Build(s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Cameras) != 1 {
		t.Fatalf("cameras = %d, want 1", len(doc.Cameras))
	}
	node := doc.Nodes[len(doc.Nodes)-1]
	if node.Camera == nil || *node.Camera != 0 {
		t.Fatalf("last node camera = %v, want 0", node.Camera)
	}
	pos := [3]float64{node.Matrix[12], node.Matrix[13], node.Matrix[14]}
	want := [3]float64{s.Camera.Position.X, s.Camera.Position.Y, s.Camera.Position.Z}
	for i := range pos {
		if math.Abs(pos[i]-want[i]) > 1e-9 {
			t.Fatalf("camera translation = %v, want %v", pos, want)
		}
	}
	// Near plane -1..1 at distance 1.
	if got := doc.Cameras[0].Perspective.Yfov; math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("yfov = %v, want pi/2", got)
	}
	if n := len(doc.Scenes[0].Nodes); n != len(doc.Nodes) {
		t.Errorf("scene nodes = %d, want %d", n, len(doc.Nodes))
	}
}

func TestWriteGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.glb")
	if err := WriteGLB(path, loadScene(t), nil); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatalf("gltf.Open: %v", err)
	}
	if len(doc.Meshes) != 2 {
		t.Errorf("meshes = %d, want 2", len(doc.Meshes))
	}
	if got := accessorCount(doc, doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
}

func TestEmptyScene(t *testing.T) {
	_, err := Build(&scene.Scene{}, nil)
	if !errors.Is(err, ErrEmptyScene) {
		t.Errorf("err = %v, want ErrEmptyScene", err)
	}
}

func TestRoughness(t *testing.T) {
	tests := []struct {
		phong, want float64
	}{
		{-5, 1},
		{0, 1},
		{2, math.Sqrt(0.5)},
		{98, math.Sqrt(0.02)},
	}
	for _, tc := range tests {
		if got := Roughness(tc.phong); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Roughness(%v) = %v, want %v", tc.phong, got, tc.want)
		}
	}
}
