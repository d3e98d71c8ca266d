package occlusion

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// screenVertex is a vertex after the perspective divide, in pixels with NDC depth.
type screenVertex struct {
	x, y, z float32
}

func transformClip(m [16]float32, p [3]float32) [4]float32 {
	return [4]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
		m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15],
	}
}

// drawTriangle clips a clip-space triangle against the near plane (z >= 0) and
// rasterizes the result as a fan.
func (b *occlusionBuffer) drawTriangle(clip [3][4]float32) {
	if clip[0][2] >= 0 && clip[1][2] >= 0 && clip[2][2] >= 0 {
		b.rasterize(b.project(clip[0]), b.project(clip[1]), b.project(clip[2]))
		return
	}
	if clip[0][2] < 0 && clip[1][2] < 0 && clip[2][2] < 0 {
		return
	}

	var poly [4][4]float32
	n := 0
	for i := 0; i < 3; i++ {
		a, c := clip[i], clip[(i+1)%3]
		if a[2] >= 0 {
			poly[n] = a
			n++
		}
		if (a[2] >= 0) != (c[2] >= 0) {
			t := a[2] / (a[2] - c[2])
			for k := 0; k < 4; k++ {
				poly[n][k] = a[k] + (c[k]-a[k])*t
			}
			n++
		}
	}
	v0 := b.project(poly[0])
	for i := 1; i+1 < n; i++ {
		b.rasterize(v0, b.project(poly[i]), b.project(poly[i+1]))
	}
}

func (b *occlusionBuffer) project(c [4]float32) screenVertex {
	w := c[3]
	if w <= 0 {
		w = 1e-6
	}
	inv := 1 / w
	return screenVertex{
		x: (c[0]*inv*0.5 + 0.5) * float32(b.width),
		y: (0.5 - c[1]*inv*0.5) * float32(b.height),
		z: c[2] * inv,
	}
}

// rasterize fills a screen-space triangle with edge functions, keeping the nearest depth.
// Winding is judged as seen on screen: CullCCW drops counter-clockwise triangles.
func (b *occlusionBuffer) rasterize(v0, v1, v2 screenVertex) {
	// Screen y points down, so a visually clockwise triangle has positive area here.
	area := (v1.x-v0.x)*(v2.y-v0.y) - (v2.x-v0.x)*(v1.y-v0.y)
	if area == 0 {
		return
	}
	switch b.cullMode {
	case graphics.CullCCW:
		if area < 0 {
			return
		}
	case graphics.CullCW:
		if area > 0 {
			return
		}
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := max(int(math32.Floor(min(v0.x, v1.x, v2.x))), 0)
	maxX := min(int(math32.Ceil(max(v0.x, v1.x, v2.x))), b.width-1)
	minY := max(int(math32.Floor(min(v0.y, v1.y, v2.y))), 0)
	maxY := min(int(math32.Ceil(max(v0.y, v1.y, v2.y))), b.height-1)
	if minX > maxX || minY > maxY {
		return
	}
	invArea := 1 / area

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		row := y * b.width
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := (v2.x-v1.x)*(py-v1.y) - (v2.y-v1.y)*(px-v1.x)
			w1 := (v0.x-v2.x)*(py-v2.y) - (v0.y-v2.y)*(px-v2.x)
			w2 := (v1.x-v0.x)*(py-v0.y) - (v1.y-v0.y)*(px-v0.x)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := (w0*v0.z + w1*v1.z + w2*v2.z) * invArea
			if z < b.depth[row+x] {
				b.depth[row+x] = z
			}
		}
	}
}
