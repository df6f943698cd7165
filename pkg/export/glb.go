// Package export writes a scene, with every mesh's transformations baked
// into its vertices, as binary glTF.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/normals"
	"github.com/taigrr/sceneview/pkg/scene"
)

// ErrEmptyScene is returned when a scene has no faces to export.
var ErrEmptyScene = errors.New("scene has no faces")

// WriteGLB bakes s and saves it as a .glb file. Vertex normals come from acc;
// a nil acc is computed from the scene.
func WriteGLB(path string, s *scene.Scene, acc *normals.Accumulator) error {
	doc, err := Build(s, acc)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	logging.Logger().Info("scene exported", "path", path, "meshes", len(doc.Meshes))
	return nil
}

// Build converts s into a glTF document: one mesh, material and node per
// scene mesh, plus a camera node. Solid meshes become triangle primitives,
// wireframe meshes line primitives over the face edges.
func Build(s *scene.Scene, acc *normals.Accumulator) (*gltf.Document, error) {
	if s.TriangleCount() == 0 {
		return nil, ErrEmptyScene
	}
	if acc == nil {
		var err error
		if acc, err = normals.ForScene(s); err != nil {
			return nil, err
		}
	}

	doc := gltf.NewDocument()
	root := doc.Scenes[0]

	for i, m := range s.Meshes {
		if len(m.Faces) == 0 {
			continue
		}
		prim := bakeMesh(doc, s.Vertices, acc, m)

		prim.Material = gltf.Index(len(doc.Materials))
		doc.Materials = append(doc.Materials, material(s.MaterialOf(m), i))

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       fmt.Sprintf("mesh%d", m.ID),
			Primitives: []*gltf.Primitive{prim},
		})
		root.Nodes = append(root.Nodes, len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: fmt.Sprintf("mesh%d", m.ID),
			Mesh: gltf.Index(len(doc.Meshes) - 1),
		})
	}

	root.Nodes = append(root.Nodes, len(doc.Nodes))
	doc.Cameras = append(doc.Cameras, camera(s.Camera))
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:   "camera",
		Camera: gltf.Index(0),
		Matrix: s.Camera.ViewMatrix().Inverse(),
	})
	return doc, nil
}

// bakeMesh writes the vertices referenced by m, transformed to world space,
// and returns a primitive indexing them.
func bakeMesh(doc *gltf.Document, vertices []math3d.Vec3, acc *normals.Accumulator, m scene.Mesh) *gltf.Primitive {
	model := m.ModelMatrix()
	normalMat := model.NormalMatrix()

	local := make(map[int]uint32)
	var positions, norms [][3]float32
	ref := func(v int) uint32 {
		if i, ok := local[v]; ok {
			return i
		}
		i := uint32(len(positions))
		local[v] = i
		positions = append(positions, model.MulVec3(vertices[v]).Float32())
		n := normalMat.MulVec3Dir(acc.At(v)).Normalize()
		if n.IsZero() {
			n = math3d.V3(0, 0, 1)
		}
		norms = append(norms, n.Float32())
		return i
	}

	mode := gltf.PrimitiveTriangles
	var indices []uint32
	for _, f := range m.Faces {
		a, b, c := ref(f.V[0]), ref(f.V[1]), ref(f.V[2])
		if m.Type == scene.MeshWireframe {
			indices = append(indices, a, b, b, c, c, a)
		} else {
			indices = append(indices, a, b, c)
		}
	}
	if m.Type == scene.MeshWireframe {
		mode = gltf.PrimitiveLines
	}

	return &gltf.Primitive{
		Mode: mode,
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, norms),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
}

// material maps a Phong material to metallic-roughness: diffuse becomes
// the base color and the exponent a roughness of sqrt(2/(n+2)).
func material(m scene.Material, i int) *gltf.Material {
	d := m.Diffuse.Clamp01()
	return &gltf.Material{
		Name: fmt.Sprintf("material%d", i),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{d.X, d.Y, d.Z, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(Roughness(m.PhongExponent)),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
}

// Roughness converts a Phong exponent to a metallic-roughness roughness in
// [0, 1].
func Roughness(phong float64) float64 {
	if phong < 0 {
		phong = 0
	}
	return math.Min(1, math.Sqrt(2/(phong+2)))
}

func camera(c scene.Camera) *gltf.Camera {
	yfov := math.Atan2(c.Plane.Top, c.Near) - math.Atan2(c.Plane.Bottom, c.Near)
	return &gltf.Camera{
		Name: "camera",
		Perspective: &gltf.Perspective{
			AspectRatio: gltf.Float(c.Aspect()),
			Yfov:        yfov,
			Znear:       c.Near,
			Zfar:        gltf.Float(c.Far),
		},
	}
}
