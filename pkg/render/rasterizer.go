package render

import (
	"math"

	"github.com/taigrr/sceneview/pkg/frame"
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/scene"
)

// maxShininess is the largest specular exponent the fixed-function
// pipeline accepts.
const maxShininess = 128

// Rasterizer executes fixed-function drawing commands on a Framebuffer.
// It implements frame.Pipeline.
type Rasterizer struct {
	fb      *Framebuffer
	zbuffer []float64 // depth buffer (1D array, row-major)

	viewport   [4]int // x, y, width, height
	projection math3d.Mat4
	stack      []math3d.Mat4 // modelview stack, top is current

	ambient  math3d.Vec3
	lights   []eyeLight
	material scene.Material
	mode     scene.MeshType

	// per Begin/End batch
	normal    math3d.Vec3
	normalMat math3d.Mat4
	pending   []clipVertex

	buffers []*frame.Buffer

	Stats Stats
}

// Stats counts the work done since the last Clear.
type Stats struct {
	Triangles int // triangles submitted
	Clipped   int // triangles entirely in front of the near plane
	Pixels    int // fragments that passed the depth test
}

type eyeLight struct {
	position  math3d.Vec3
	intensity math3d.Vec3
}

type clipVertex struct {
	pos   math3d.Vec4
	color math3d.Vec3
}

// screenVertex is a vertex after perspective divide and viewport mapping.
type screenVertex struct {
	X, Y, Z float64
	Color   math3d.Vec3
}

var _ frame.Pipeline = (*Rasterizer)(nil)

// NewRasterizer creates a rasterizer drawing into fb with a viewport
// covering the whole framebuffer.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		fb:         fb,
		projection: math3d.Identity(),
		stack:      []math3d.Mat4{math3d.Identity()},
	}
	r.Resize()
	return r
}

// Resize resizes the depth buffer to match the framebuffer and resets the
// viewport to cover it.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.viewport = [4]int{0, 0, r.fb.Width, r.fb.Height}
}

// SetFramebuffer redirects drawing to fb. Uploaded buffers are kept.
func (r *Rasterizer) SetFramebuffer(fb *Framebuffer) {
	r.fb = fb
	r.Resize()
}

// SetViewport maps normalized device coordinates to the w×h rectangle at
// (x, y), with y growing downwards.
func (r *Rasterizer) SetViewport(x, y, w, h int) {
	r.viewport = [4]int{x, y, w, h}
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth resets the Z-buffer.
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Depth returns the stored depth at (x, y), or math.MaxFloat64 where
// nothing has been drawn.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// Clear fills the framebuffer with the background and resets depth.
func (r *Rasterizer) Clear(background math3d.Vec3) {
	r.fb.Clear(ColorFromBytes(background))
	r.ClearDepth()
	r.Stats = Stats{}
}

// SetCamera loads the camera projection and resets the modelview stack to
// the view matrix.
func (r *Rasterizer) SetCamera(c scene.Camera) {
	r.projection = c.ProjectionMatrix()
	r.stack = append(r.stack[:0], c.ViewMatrix())
}

// SetLights stores the lights in eye space, transformed by the current
// modelview matrix.
func (r *Rasterizer) SetLights(ambient math3d.Vec3, lights []scene.PointLight) {
	top := r.top()
	r.ambient = ambient
	r.lights = r.lights[:0]
	for _, l := range lights {
		r.lights = append(r.lights, eyeLight{
			position:  top.MulVec3(l.Position),
			intensity: l.Intensity,
		})
	}
}

func (r *Rasterizer) top() math3d.Mat4 {
	return r.stack[len(r.stack)-1]
}

func (r *Rasterizer) mulTop(m math3d.Mat4) {
	i := len(r.stack) - 1
	r.stack[i] = r.stack[i].Mul(m)
}

// PushMatrix duplicates the current modelview matrix.
func (r *Rasterizer) PushMatrix() {
	r.stack = append(r.stack, r.top())
}

// PopMatrix restores the previous modelview matrix. Popping the last
// matrix is ignored.
func (r *Rasterizer) PopMatrix() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

func (r *Rasterizer) Translate(v math3d.Vec3) { r.mulTop(math3d.Translate(v)) }

func (r *Rasterizer) Scale(v math3d.Vec3) { r.mulTop(math3d.Scale(v)) }

func (r *Rasterizer) Rotate(angle float64, axis math3d.Vec3) {
	r.mulTop(math3d.Rotate(axis, angle*math.Pi/180))
}

func (r *Rasterizer) SetMaterial(m scene.Material) { r.material = m }

func (r *Rasterizer) SetPolygonMode(t scene.MeshType) { r.mode = t }

// Begin starts a triangle list.
func (r *Rasterizer) Begin() {
	r.normalMat = r.top().NormalMatrix()
	r.pending = r.pending[:0]
}

// Normal sets the normal for the following vertices.
func (r *Rasterizer) Normal(n math3d.Vec3) { r.normal = n }

// Vertex lights p with the current normal and material and queues it. Every
// third vertex completes a triangle.
func (r *Rasterizer) Vertex(p math3d.Vec3) {
	mv := r.top()
	eye := mv.MulVec3(p)
	var c math3d.Vec3
	if r.normal.IsZero() {
		c = r.shadeAmbient()
	} else {
		c = r.shade(eye, r.normalMat.MulVec3Dir(r.normal).Normalize())
	}
	r.pending = append(r.pending, clipVertex{
		pos:   r.projection.MulVec4(math3d.V4FromV3(eye, 1)),
		color: c,
	})
	if len(r.pending) == 3 {
		r.drawTriangle([3]clipVertex{r.pending[0], r.pending[1], r.pending[2]})
		r.pending = r.pending[:0]
	}
}

// End finishes the triangle list. A trailing incomplete face is dropped.
func (r *Rasterizer) End() {
	r.pending = r.pending[:0]
}

// UploadBuffer keeps b for DrawBuffer.
func (r *Rasterizer) UploadBuffer(b *frame.Buffer) frame.BufferHandle {
	r.buffers = append(r.buffers, b)
	return frame.BufferHandle(len(r.buffers) - 1)
}

// DrawBuffer replays an uploaded buffer as a triangle list. Unknown
// handles draw nothing.
func (r *Rasterizer) DrawBuffer(h frame.BufferHandle) {
	if h < 0 || int(h) >= len(r.buffers) {
		return
	}
	b := r.buffers[h]
	r.Begin()
	for i := 0; i+2 < len(b.Positions) && i+2 < len(b.Normals); i += 3 {
		r.Normal(math3d.V3(float64(b.Normals[i]), float64(b.Normals[i+1]), float64(b.Normals[i+2])))
		r.Vertex(math3d.V3(float64(b.Positions[i]), float64(b.Positions[i+1]), float64(b.Positions[i+2])))
	}
	r.End()
}

func (r *Rasterizer) drawTriangle(tri [3]clipVertex) {
	r.Stats.Triangles++
	poly := clipNear(tri[:])
	if len(poly) < 3 {
		r.Stats.Clipped++
		return
	}
	sv := make([]screenVertex, len(poly))
	for i, v := range poly {
		sv[i] = r.toScreen(v)
	}

	if r.mode == scene.MeshWireframe {
		for i := range sv {
			r.drawLine(sv[i], sv[(i+1)%len(sv)])
		}
		return
	}
	// The clipped polygon is convex; fan it into triangles.
	for i := 1; i+1 < len(sv); i++ {
		r.fillTriangle(sv[0], sv[i], sv[i+1])
	}
}

func (r *Rasterizer) toScreen(v clipVertex) screenVertex {
	invW := 1 / v.pos.W
	vx, vy, vw, vh := r.viewport[0], r.viewport[1], r.viewport[2], r.viewport[3]
	return screenVertex{
		X:     float64(vx) + (v.pos.X*invW+1)*0.5*float64(vw),
		Y:     float64(vy) + (1-v.pos.Y*invW)*0.5*float64(vh),
		Z:     v.pos.Z * invW,
		Color: v.color,
	}
}

// clipNear clips a polygon against the near plane (z >= -w in clip space).
func clipNear(in []clipVertex) []clipVertex {
	dist := func(v clipVertex) float64 { return v.pos.Z + v.pos.W }

	out := make([]clipVertex, 0, len(in)+1)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, lerpClip(a, b, t))
		}
	}
	return out
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		pos: math3d.Vec4{
			X: a.pos.X + (b.pos.X-a.pos.X)*t,
			Y: a.pos.Y + (b.pos.Y-a.pos.Y)*t,
			Z: a.pos.Z + (b.pos.Z-a.pos.Z)*t,
			W: a.pos.W + (b.pos.W-a.pos.W)*t,
		},
		color: a.color.Add(b.color.Sub(a.color).Scale(t)),
	}
}

// bounds returns the drawable pixel rectangle: the viewport clipped to the
// framebuffer, as [minX, maxX) × [minY, maxY).
func (r *Rasterizer) bounds() (minX, minY, maxX, maxY int) {
	minX, minY = max(r.viewport[0], 0), max(r.viewport[1], 0)
	maxX = min(r.viewport[0]+r.viewport[2], r.Width())
	maxY = min(r.viewport[1]+r.viewport[3], r.Height())
	return
}

// plot writes a fragment if it passes the depth test.
func (r *Rasterizer) plot(x, y int, z float64, c math3d.Vec3) {
	if z > 1 {
		return // beyond the far plane
	}
	idx := y*r.fb.Width + x
	if z < r.zbuffer[idx] {
		r.zbuffer[idx] = z
		r.fb.Pixels[idx] = ColorFromUnit(c)
		r.Stats.Pixels++
	}
}
