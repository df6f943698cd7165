// Package scene holds the in-memory scene description: camera, lights,
// materials, the shared vertex table and the meshes that index into it.
//
// A Scene is built once by Load or Parse and is read-only afterwards. All
// indices stored in a Scene are 0-based and already validated; the 1-based
// indices of the XML file never leave this package.
package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// Scene is a fully resolved scene description.
type Scene struct {
	Background   math3d.Vec3 // Clear color, 0-255 per channel
	Camera       Camera
	AmbientLight math3d.Vec3
	Lights       []PointLight
	Materials    []Material
	Vertices     []math3d.Vec3
	Meshes       []Mesh
}

// Camera describes a pinhole camera with an explicit near-plane rectangle.
type Camera struct {
	Position math3d.Vec3
	Gaze     math3d.Vec3
	Up       math3d.Vec3
	Plane    NearPlane
	Near     float64
	Far      float64
	Width    int // Image width in pixels
	Height   int // Image height in pixels
}

// NearPlane is the view window on the near plane, in camera space.
type NearPlane struct {
	Left, Right, Bottom, Top float64
}

// Aspect returns the width/height ratio of the image.
func (c Camera) Aspect() float64 {
	if c.Height == 0 {
		return 1
	}
	return float64(c.Width) / float64(c.Height)
}

// ProjectionMatrix returns the glFrustum projection for the camera.
func (c Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Frustum(c.Plane.Left, c.Plane.Right, c.Plane.Bottom, c.Plane.Top, c.Near, c.Far)
}

// ViewMatrix returns the gluLookAt view matrix. The look-at target is the
// point Near units along the gaze.
func (c Camera) ViewMatrix() math3d.Mat4 {
	center := c.Position.Add(c.Gaze.Normalize().Scale(c.Near))
	return math3d.LookAt(c.Position, center, c.Up)
}

// Material holds fixed-function material state.
type Material struct {
	Ambient       math3d.Vec3
	Diffuse       math3d.Vec3
	Specular      math3d.Vec3
	PhongExponent float64
}

// PointLight is a positional light source.
type PointLight struct {
	Position  math3d.Vec3
	Intensity math3d.Vec3
}

// MeshType selects how a mesh's polygons are rasterized.
type MeshType int

const (
	MeshSolid     MeshType = iota // Filled polygons
	MeshWireframe                 // Polygon edges only
)

func (t MeshType) String() string {
	switch t {
	case MeshSolid:
		return "Solid"
	case MeshWireframe:
		return "Wireframe"
	}
	return fmt.Sprintf("MeshType(%d)", int(t))
}

func parseMeshType(s string) (MeshType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solid":
		return MeshSolid, nil
	case "wireframe":
		return MeshWireframe, nil
	}
	return 0, fmt.Errorf("mesh type %q: %w", s, ErrMalformed)
}

// Face is a triangle as three 0-based indices into Scene.Vertices.
type Face struct {
	V [3]int
}

// Mesh is a triangle list sharing one material and one transformation chain.
type Mesh struct {
	ID         int
	Type       MeshType
	Material   int         // 0-based index into Scene.Materials
	Transforms []Transform // In file order
	Faces      []Face
}

// ModelMatrix composes the mesh's transformation chain the way the frame
// renderer issues it: in reverse file order on a post-multiplying matrix
// stack, so the first transformation in the file touches the geometry first.
func (m Mesh) ModelMatrix() math3d.Mat4 {
	model := math3d.Identity()
	for i := len(m.Transforms) - 1; i >= 0; i-- {
		model = model.Mul(m.Transforms[i].Matrix())
	}
	return model
}

// TransformKind is the closed set of transformation variants.
type TransformKind int

const (
	Translate TransformKind = iota
	Rotate
	Scale
)

func (k TransformKind) String() string {
	switch k {
	case Translate:
		return "Translation"
	case Rotate:
		return "Rotation"
	case Scale:
		return "Scaling"
	}
	return fmt.Sprintf("TransformKind(%d)", int(k))
}

// Transform is one resolved transformation.
//
// For Translate and Scale, Vector is the offset or the per-axis factor.
// For Rotate, Angle is in degrees and Vector is the rotation axis.
type Transform struct {
	Kind   TransformKind
	Angle  float64
	Vector math3d.Vec3
}

// Translation returns a translation by v.
func Translation(v math3d.Vec3) Transform {
	return Transform{Kind: Translate, Vector: v}
}

// Rotation returns a rotation of angle degrees around axis.
func Rotation(angle float64, axis math3d.Vec3) Transform {
	return Transform{Kind: Rotate, Angle: angle, Vector: axis}
}

// Scaling returns a per-axis scale by v.
func Scaling(v math3d.Vec3) Transform {
	return Transform{Kind: Scale, Vector: v}
}

// Matrix returns the 4x4 matrix of the transformation.
func (t Transform) Matrix() math3d.Mat4 {
	switch t.Kind {
	case Translate:
		return math3d.Translate(t.Vector)
	case Rotate:
		return math3d.Rotate(t.Vector, t.Angle*math.Pi/180)
	case Scale:
		return math3d.Scale(t.Vector)
	}
	panic(fmt.Sprintf("scene: unknown transform kind %d", int(t.Kind)))
}

// TriangleCount returns the number of faces across all meshes.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += len(m.Faces)
	}
	return n
}

// MaterialOf returns the material of mesh m.
func (s *Scene) MaterialOf(m Mesh) Material {
	return s.Materials[m.Material]
}
