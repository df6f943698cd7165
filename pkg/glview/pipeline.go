package glview

import (
	"math"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/sceneview/pkg/frame"
	"github.com/taigrr/sceneview/pkg/logging"
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/scene"
)

// maxShininess is the largest GL_SHININESS the fixed-function pipeline
// accepts.
const maxShininess = 128

type vbo struct {
	positions, normals uint32
	count              int32
}

// Pipeline executes fixed-function drawing commands with OpenGL 2.1 calls.
// It needs a current context and implements frame.Pipeline.
type Pipeline struct {
	maxLights int32
	enabled   int // lights enabled by the last SetLights
	buffers   []vbo
}

var _ frame.Pipeline = (*Pipeline)(nil)

// NewPipeline sets up depth testing, smooth shading and lighting on the
// current context.
func NewPipeline() *Pipeline {
	p := &Pipeline{}
	gl.GetIntegerv(gl.MAX_LIGHTS, &p.maxLights)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.ShadeModel(gl.SMOOTH)
	gl.Enable(gl.LIGHTING)
	gl.Enable(gl.NORMALIZE)
	gl.Disable(gl.CULL_FACE)
	return p
}

func vec4(v math3d.Vec3, w float32) [4]float32 {
	return [4]float32{float32(v.X), float32(v.Y), float32(v.Z), w}
}

func (p *Pipeline) Clear(background math3d.Vec3) {
	c := background.Scale(1.0 / 255).Clamp01()
	gl.ClearColor(float32(c.X), float32(c.Y), float32(c.Z), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetCamera loads the frustum projection and the look-at view.
func (p *Pipeline) SetCamera(c scene.Camera) {
	proj := mgl32.Frustum(
		float32(c.Plane.Left), float32(c.Plane.Right),
		float32(c.Plane.Bottom), float32(c.Plane.Top),
		float32(c.Near), float32(c.Far),
	)
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadMatrixf(&proj[0])

	center := c.Position.Add(c.Gaze.Normalize().Scale(c.Near))
	view := mgl32.LookAtV(
		mgl32.Vec3(c.Position.Float32()),
		mgl32.Vec3(center.Float32()),
		mgl32.Vec3(c.Up.Float32()),
	)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadMatrixf(&view[0])
}

// SetLights enables one GL light per point light. Lights beyond
// GL_MAX_LIGHTS are dropped with a warning.
func (p *Pipeline) SetLights(ambient math3d.Vec3, lights []scene.PointLight) {
	amb := vec4(ambient, 1)
	gl.LightModelfv(gl.LIGHT_MODEL_AMBIENT, &amb[0])

	if len(lights) > int(p.maxLights) {
		logging.Logger().Warn("too many lights", "lights", len(lights), "max", p.maxLights)
		lights = lights[:p.maxLights]
	}

	black := [4]float32{0, 0, 0, 1}
	for i, l := range lights {
		id := gl.LIGHT0 + uint32(i)
		pos := vec4(l.Position, 1)
		intensity := vec4(l.Intensity, 1)
		gl.Lightfv(id, gl.POSITION, &pos[0])
		gl.Lightfv(id, gl.AMBIENT, &black[0])
		gl.Lightfv(id, gl.DIFFUSE, &intensity[0])
		gl.Lightfv(id, gl.SPECULAR, &intensity[0])
		gl.Enable(id)
	}
	for i := len(lights); i < p.enabled; i++ {
		gl.Disable(gl.LIGHT0 + uint32(i))
	}
	p.enabled = len(lights)
}

func (p *Pipeline) PushMatrix() { gl.PushMatrix() }

func (p *Pipeline) PopMatrix() { gl.PopMatrix() }

func (p *Pipeline) Translate(v math3d.Vec3) {
	gl.Translatef(float32(v.X), float32(v.Y), float32(v.Z))
}

func (p *Pipeline) Rotate(angle float64, axis math3d.Vec3) {
	gl.Rotatef(float32(angle), float32(axis.X), float32(axis.Y), float32(axis.Z))
}

func (p *Pipeline) Scale(v math3d.Vec3) {
	gl.Scalef(float32(v.X), float32(v.Y), float32(v.Z))
}

func (p *Pipeline) SetMaterial(m scene.Material) {
	ambient := vec4(m.Ambient, 1)
	diffuse := vec4(m.Diffuse, 1)
	specular := vec4(m.Specular, 1)
	gl.Materialfv(gl.FRONT, gl.AMBIENT, &ambient[0])
	gl.Materialfv(gl.FRONT, gl.DIFFUSE, &diffuse[0])
	gl.Materialfv(gl.FRONT, gl.SPECULAR, &specular[0])
	gl.Materialf(gl.FRONT, gl.SHININESS, float32(math.Min(math.Max(m.PhongExponent, 0), maxShininess)))
}

func (p *Pipeline) SetPolygonMode(t scene.MeshType) {
	if t == scene.MeshWireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (p *Pipeline) Begin() { gl.Begin(gl.TRIANGLES) }

func (p *Pipeline) Normal(n math3d.Vec3) {
	gl.Normal3f(float32(n.X), float32(n.Y), float32(n.Z))
}

func (p *Pipeline) Vertex(v math3d.Vec3) {
	gl.Vertex3f(float32(v.X), float32(v.Y), float32(v.Z))
}

func (p *Pipeline) End() { gl.End() }

// UploadBuffer copies b into two static vertex buffer objects.
func (p *Pipeline) UploadBuffer(b *frame.Buffer) frame.BufferHandle {
	var ids [2]uint32
	gl.GenBuffers(2, &ids[0])

	bufferData(ids[0], b.Positions)
	bufferData(ids[1], b.Normals)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	p.buffers = append(p.buffers, vbo{
		positions: ids[0],
		normals:   ids[1],
		count:     int32(b.VertexCount()),
	})
	logging.Logger().Debug("buffer uploaded", "vertices", b.VertexCount())
	return frame.BufferHandle(len(p.buffers) - 1)
}

func bufferData(id uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, id)
	if len(data) == 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
		return
	}
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

// DrawBuffer draws an uploaded buffer with client-state vertex and normal
// arrays.
func (p *Pipeline) DrawBuffer(h frame.BufferHandle) {
	if h < 0 || int(h) >= len(p.buffers) {
		return
	}
	b := p.buffers[h]

	gl.EnableClientState(gl.VERTEX_ARRAY)
	gl.EnableClientState(gl.NORMAL_ARRAY)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.positions)
	gl.VertexPointer(3, gl.FLOAT, 0, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, b.normals)
	gl.NormalPointer(gl.FLOAT, 0, gl.PtrOffset(0))

	gl.DrawArrays(gl.TRIANGLES, 0, b.count)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.DisableClientState(gl.NORMAL_ARRAY)
	gl.DisableClientState(gl.VERTEX_ARRAY)
}

// Release deletes every uploaded buffer.
func (p *Pipeline) Release() {
	for _, b := range p.buffers {
		ids := [2]uint32{b.positions, b.normals}
		gl.DeleteBuffers(2, &ids[0])
	}
	p.buffers = nil
}

// CheckErrors drains the GL error queue, logging each code at debug level,
// and reports how many there were.
func (p *Pipeline) CheckErrors() int {
	n := 0
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		logging.Logger().Debug("gl error", "code", code)
		n++
	}
	return n
}
