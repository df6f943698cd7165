// Package frame walks a scene once per displayed frame and issues
// fixed-function drawing commands to a Pipeline.
package frame

import (
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/scene"
)

// Pipeline is the fixed-function command set a backend executes.
//
// Matrix calls post-multiply the current modelview matrix, so the last call
// issued before a vertex is the first transformation applied to it.
// Normals passed to Normal need not be unit length; the pipeline normalizes
// them after carrying them into eye space. A zero normal means the normal is
// undefined for that vertex.
type Pipeline interface {
	// Clear resets color and depth. Color components are 0-255.
	Clear(background math3d.Vec3)
	// SetCamera loads the projection and the view matrix and resets the
	// modelview stack to the view.
	SetCamera(c scene.Camera)
	// SetLights positions the point lights in the current (view) space.
	SetLights(ambient math3d.Vec3, lights []scene.PointLight)

	PushMatrix()
	PopMatrix()
	Translate(v math3d.Vec3)
	Rotate(angle float64, axis math3d.Vec3) // angle in degrees
	Scale(v math3d.Vec3)

	SetMaterial(m scene.Material)
	SetPolygonMode(t scene.MeshType)

	// Begin starts a triangle list; every three Vertex calls form a face.
	Begin()
	Normal(n math3d.Vec3)
	Vertex(p math3d.Vec3)
	End()

	// UploadBuffer stores b for repeated drawing and returns its handle.
	UploadBuffer(b *Buffer) BufferHandle
	// DrawBuffer draws a previously uploaded buffer as triangles.
	DrawBuffer(h BufferHandle)
}

// BufferHandle names a buffer owned by a Pipeline.
type BufferHandle int

// Buffer is a de-indexed triangle list: three consecutive vertices per face,
// three float32 components per position and per normal.
type Buffer struct {
	Positions []float32
	Normals   []float32
}

// VertexCount returns the number of vertices in the buffer.
func (b *Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

func (b *Buffer) append(p, n math3d.Vec3) {
	pf, nf := p.Float32(), n.Float32()
	b.Positions = append(b.Positions, pf[:]...)
	b.Normals = append(b.Normals, nf[:]...)
}
