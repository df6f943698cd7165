// Package normals computes shading normals for scene meshes.
//
// Accumulate builds one smooth normal per vertex by summing the unnormalized
// corner cross products of every triangle that touches the vertex. Longer
// edges and wider corner angles weigh more, which is an area/angle weighted
// approximation of the averaged surface normal. FaceNormal gives the single
// normal used for flat shading.
package normals

import (
	"errors"
	"fmt"

	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/scene"
)

// ErrIndexOutOfRange reports a face that names a vertex outside the vertex
// table. Scenes produced by scene.Load never trigger it.
var ErrIndexOutOfRange = errors.New("normals: vertex index out of range")

// Accumulator holds one running normal sum per vertex, in vertex-table
// order. It is fully populated by Accumulate and never modified afterwards.
type Accumulator struct {
	sums []math3d.Vec3
}

// Accumulate sums corner normals over every face of every mesh.
//
// For a face (v0, v1, v2) each corner adds the cross product of its two
// outgoing edges, taken in winding order:
//
//	v0: (v1-v0) × (v2-v0)
//	v1: (v2-v1) × (v0-v1)
//	v2: (v0-v2) × (v1-v2)
//
// Vertices no face references keep the zero vector.
func Accumulate(vertices []math3d.Vec3, meshes []scene.Mesh) (*Accumulator, error) {
	acc := &Accumulator{sums: make([]math3d.Vec3, len(vertices))}

	for mi, m := range meshes {
		for fi, f := range m.Faces {
			for _, v := range f.V {
				if v < 0 || v >= len(vertices) {
					return nil, fmt.Errorf("mesh %d face %d: vertex %d of %d: %w",
						mi, fi, v, len(vertices), ErrIndexOutOfRange)
				}
			}

			p0, p1, p2 := vertices[f.V[0]], vertices[f.V[1]], vertices[f.V[2]]
			acc.sums[f.V[0]] = acc.sums[f.V[0]].Add(corner(p0, p1, p2))
			acc.sums[f.V[1]] = acc.sums[f.V[1]].Add(corner(p1, p2, p0))
			acc.sums[f.V[2]] = acc.sums[f.V[2]].Add(corner(p2, p0, p1))
		}
	}

	return acc, nil
}

// ForScene runs Accumulate over a loaded scene.
func ForScene(s *scene.Scene) (*Accumulator, error) {
	return Accumulate(s.Vertices, s.Meshes)
}

// corner returns (next-at) × (prev-at).
func corner(at, next, prev math3d.Vec3) math3d.Vec3 {
	return next.Sub(at).Cross(prev.Sub(at))
}

// Len returns the number of vertices covered.
func (a *Accumulator) Len() int {
	return len(a.sums)
}

// At returns the raw, unnormalized sum for vertex i.
func (a *Accumulator) At(i int) math3d.Vec3 {
	return a.sums[i]
}

// Unit returns the normalized sum for vertex i. The second result is false
// when the sum is zero and the normal is undefined.
func (a *Accumulator) Unit(i int) (math3d.Vec3, bool) {
	s := a.sums[i]
	if s.IsZero() {
		return math3d.Zero3(), false
	}
	return s.Normalize(), true
}

// FaceNormal returns the unit geometric normal of triangle (p0, p1, p2),
// (p1-p0) × (p2-p0) normalized. Every corner of a flat-shaded face uses it.
func FaceNormal(p0, p1, p2 math3d.Vec3) math3d.Vec3 {
	return corner(p0, p1, p2).Normalize()
}
