package render

import (
	"math"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// edgeCoeffs returns A, B, C for the edge function E(x,y) = A*x + B*y + C of
// the edge from (x0,y0) to (x1,y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1
	B = x1 - x0
	C = x0*y1 - x1*y0
	return
}

// fillTriangle rasterizes a screen-space triangle of either winding with
// incremental edge functions, depth testing and Gouraud color
// interpolation.
func (r *Rasterizer) fillTriangle(v0, v1, v2 screenVertex) {
	area := (v1.X-v0.X)*(v2.Y-v0.Y) - (v1.Y-v0.Y)*(v2.X-v0.X)
	if area == 0 {
		return // degenerate
	}
	invArea := 1 / area

	minX, minY, maxX, maxY := r.bounds()
	x0 := max(minX, int(math.Floor(min3(v0.X, v1.X, v2.X))))
	x1 := min(maxX-1, int(math.Ceil(max3(v0.X, v1.X, v2.X))))
	y0 := max(minY, int(math.Floor(min3(v0.Y, v1.Y, v2.Y))))
	y1 := min(maxY-1, int(math.Ceil(max3(v0.Y, v1.Y, v2.Y))))
	if x0 > x1 || y0 > y1 {
		return
	}

	// Edge i is opposite vertex i.
	A0, B0, C0 := edgeCoeffs(v1.X, v1.Y, v2.X, v2.Y)
	A1, B1, C1 := edgeCoeffs(v2.X, v2.Y, v0.X, v0.Y)
	A2, B2, C2 := edgeCoeffs(v0.X, v0.Y, v1.X, v1.Y)

	// Sample at pixel centers.
	px, py := float64(x0)+0.5, float64(y0)+0.5
	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	for y := y0; y <= y1; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		for x := x0; x <= x1; x++ {
			b0, b1, b2 := w0*invArea, w1*invArea, w2*invArea
			if b0 >= 0 && b1 >= 0 && b2 >= 0 {
				z := b0*v0.Z + b1*v1.Z + b2*v2.Z
				r.plot(x, y, z, interpolateColor3(v0.Color, v1.Color, v2.Color, b0, b1, b2))
			}
			w0 += A0
			w1 += A1
			w2 += A2
		}
		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
}

// drawLine draws a depth-tested line with interpolated depth and color.
func (r *Rasterizer) drawLine(a, b screenVertex) {
	minX, minY, maxX, maxY := r.bounds()
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Floor(a.X + dx*t))
		y := int(math.Floor(a.Y + dy*t))
		if x < minX || x >= maxX || y < minY || y >= maxY {
			continue
		}
		z := a.Z + (b.Z-a.Z)*t
		r.plot(x, y, z, a.Color.Add(b.Color.Sub(a.Color).Scale(t)))
	}
}

func interpolateColor3(c0, c1, c2 math3d.Vec3, b0, b1, b2 float64) math3d.Vec3 {
	return math3d.Vec3{
		X: c0.X*b0 + c1.X*b1 + c2.X*b2,
		Y: c0.Y*b0 + c1.Y*b1 + c2.Y*b2,
		Z: c0.Z*b0 + c1.Z*b1 + c2.Z*b2,
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
