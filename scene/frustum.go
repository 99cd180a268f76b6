package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space Normal·p + D >= 0. Normal points into the
// frustum.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo is the signed distance from pt, positive inside.
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the left, right, bottom, top, near and far planes.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the clip planes of a projection * view matrix built
// for Vulkan clip space, where depth runs from 0 to 1.
func NewFrustum(viewProjection mgl32.Mat4) Frustum {
	r0 := viewProjection.Row(0)
	r1 := viewProjection.Row(1)
	r2 := viewProjection.Row(2)
	r3 := viewProjection.Row(3)

	var f Frustum
	f.Planes[0] = planeFrom(r3.Add(r0))
	f.Planes[1] = planeFrom(r3.Sub(r0))
	f.Planes[2] = planeFrom(r3.Add(r1))
	f.Planes[3] = planeFrom(r3.Sub(r1))
	f.Planes[4] = planeFrom(r2)
	f.Planes[5] = planeFrom(r3.Sub(r2))
	return f
}

// CameraFrustum is the view frustum of c.
func CameraFrustum(c *Camera) Frustum {
	return NewFrustum(c.Projection().Mul4(c.View()))
}

func planeFrom(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Intersects reports false only when box lies entirely outside one of the
// planes. For each plane it tests the corner furthest along the normal.
func (f *Frustum) Intersects(box AABB) bool {
	for _, p := range f.Planes {
		var corner mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] < 0 {
				corner[axis] = box.Min[axis]
			} else {
				corner[axis] = box.Max[axis]
			}
		}
		if p.DistanceTo(corner) < 0 {
			return false
		}
	}
	return true
}

// Transform returns the world bounds of the box's eight corners under m.
func (box AABB) Transform(m mgl32.Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		corner := box.Min
		if i&1 != 0 {
			corner[0] = box.Max[0]
		}
		if i&2 != 0 {
			corner[1] = box.Max[1]
		}
		if i&4 != 0 {
			corner[2] = box.Max[2]
		}
		p := m.Mul4x1(corner.Vec4(1)).Vec3()
		if i == 0 {
			out = AABB{Min: p, Max: p}
			continue
		}
		for axis := 0; axis < 3; axis++ {
			out.Min[axis] = min(out.Min[axis], p[axis])
			out.Max[axis] = max(out.Max[axis], p[axis])
		}
	}
	return out
}

// Bounds is the box around every vertex of b.
func (b *Builder) Bounds() AABB {
	if len(b.Vertices) == 0 {
		return AABB{}
	}
	out := AABB{Min: b.Vertices[0].Position, Max: b.Vertices[0].Position}
	for _, v := range b.Vertices[1:] {
		for axis := 0; axis < 3; axis++ {
			out.Min[axis] = min(out.Min[axis], v.Position[axis])
			out.Max[axis] = max(out.Max[axis], v.Position[axis])
		}
	}
	return out
}
