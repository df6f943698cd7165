package render

import (
	"math"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// viewer is the eye-space direction to a non-local viewer.
var viewer = math3d.V3(0, 0, 1)

// shadeAmbient returns the color of a vertex whose normal is undefined.
func (r *Rasterizer) shadeAmbient() math3d.Vec3 {
	return r.material.Ambient.Mul(r.ambient).Clamp01()
}

// shade evaluates fixed-function lighting at an eye-space position with a
// unit eye-space normal: global ambient, then diffuse and Blinn-Phong
// specular for every point light. Lights carry no ambient term and no
// attenuation.
func (r *Rasterizer) shade(pos, n math3d.Vec3) math3d.Vec3 {
	m := r.material
	c := m.Ambient.Mul(r.ambient)
	shininess := math.Min(math.Max(m.PhongExponent, 0), maxShininess)

	for _, l := range r.lights {
		dir := l.position.Sub(pos).Normalize()
		ndotl := n.Dot(dir)
		if ndotl <= 0 {
			continue
		}
		c = c.Add(m.Diffuse.Mul(l.intensity).Scale(ndotl))

		half := dir.Add(viewer).Normalize()
		if ndoth := n.Dot(half); ndoth > 0 {
			c = c.Add(m.Specular.Mul(l.intensity).Scale(math.Pow(ndoth, shininess)))
		}
	}
	return c.Clamp01()
}
