package frame

import (
	"fmt"

	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/normals"
	"github.com/taigrr/sceneview/pkg/scene"
)

// Renderer draws a fixed scene. It keeps no per-frame state: every call to
// Draw issues the same command sequence.
//
// A Renderer in buffered mode uploads its buffers to the first pipeline it
// draws into and must keep drawing into that pipeline.
type Renderer struct {
	scene   *scene.Scene
	normals *normals.Accumulator
	shading Shading

	buffers []*Buffer
	handles []BufferHandle
}

// NewRenderer prepares s for drawing. Smooth and buffered shading run the
// normal aggregator once here.
func NewRenderer(s *scene.Scene, shading Shading) (*Renderer, error) {
	r := &Renderer{scene: s, shading: shading}

	if shading != ShadingFlat {
		acc, err := normals.ForScene(s)
		if err != nil {
			return nil, fmt.Errorf("vertex normals: %w", err)
		}
		r.normals = acc
	}

	if shading == ShadingBuffered {
		r.buffers = make([]*Buffer, len(s.Meshes))
		for i, m := range s.Meshes {
			r.buffers[i] = r.buildBuffer(m)
		}
	}

	logging.Logger().Debug("renderer ready",
		"shading", shading.String(),
		"meshes", len(s.Meshes),
		"triangles", s.TriangleCount(),
	)
	return r, nil
}

// Normals returns the vertex normal sums computed for the scene, or nil in
// flat mode, which does not need them.
func (r *Renderer) Normals() *normals.Accumulator {
	return r.normals
}

// Shading returns the renderer's shading mode.
func (r *Renderer) Shading() Shading {
	return r.shading
}

func (r *Renderer) buildBuffer(m scene.Mesh) *Buffer {
	b := &Buffer{
		Positions: make([]float32, 0, len(m.Faces)*9),
		Normals:   make([]float32, 0, len(m.Faces)*9),
	}
	for _, f := range m.Faces {
		for _, v := range f.V {
			b.append(r.scene.Vertices[v], r.normals.At(v))
		}
	}
	return b
}

// Draw issues one frame.
func (r *Renderer) Draw(p Pipeline) {
	s := r.scene

	p.Clear(s.Background)
	p.SetCamera(s.Camera)
	p.SetLights(s.AmbientLight, s.Lights)

	if r.shading == ShadingBuffered && r.handles == nil {
		r.handles = make([]BufferHandle, len(r.buffers))
		for i, b := range r.buffers {
			r.handles[i] = p.UploadBuffer(b)
		}
	}

	for i, m := range s.Meshes {
		p.PushMatrix()
		for j := len(m.Transforms) - 1; j >= 0; j-- {
			applyTransform(p, m.Transforms[j])
		}
		p.SetPolygonMode(m.Type)
		p.SetMaterial(s.MaterialOf(m))

		if r.shading == ShadingBuffered {
			p.DrawBuffer(r.handles[i])
		} else {
			r.drawImmediate(p, m)
		}
		p.PopMatrix()
	}
}

func (r *Renderer) drawImmediate(p Pipeline, m scene.Mesh) {
	verts := r.scene.Vertices

	p.Begin()
	for _, f := range m.Faces {
		if r.shading == ShadingFlat {
			n := normals.FaceNormal(verts[f.V[0]], verts[f.V[1]], verts[f.V[2]])
			for _, v := range f.V {
				p.Normal(n)
				p.Vertex(verts[v])
			}
			continue
		}
		for _, v := range f.V {
			p.Normal(r.normals.At(v))
			p.Vertex(verts[v])
		}
	}
	p.End()
}

func applyTransform(p Pipeline, t scene.Transform) {
	switch t.Kind {
	case scene.Translate:
		p.Translate(t.Vector)
	case scene.Rotate:
		p.Rotate(t.Angle, t.Vector)
	case scene.Scale:
		p.Scale(t.Vector)
	default:
		panic(fmt.Sprintf("frame: unknown transform kind %v", t.Kind))
	}
}
