package scene

import "github.com/go-gl/mathgl/mgl32"

// ComputeNormals gives every vertex whose normal is zero the area weighted
// average of the normals of the triangles that use it. Vertices that already
// carry a normal are left alone.
func (b *Builder) ComputeNormals() {
	missing := make([]bool, len(b.Vertices))
	need := false
	for i, v := range b.Vertices {
		if v.Normal.LenSqr() == 0 {
			missing[i] = true
			need = true
		}
	}
	if !need {
		return
	}

	accum := func(i0, i1, i2 uint32) {
		p0 := b.Vertices[i0].Position
		e1 := b.Vertices[i1].Position.Sub(p0)
		e2 := b.Vertices[i2].Position.Sub(p0)
		// The cross product's length is twice the triangle area.
		n := e1.Cross(e2)
		for _, i := range [3]uint32{i0, i1, i2} {
			if missing[i] {
				b.Vertices[i].Normal = b.Vertices[i].Normal.Add(n)
			}
		}
	}
	if len(b.Indices) > 0 {
		for i := 0; i+2 < len(b.Indices); i += 3 {
			accum(b.Indices[i], b.Indices[i+1], b.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(b.Vertices); i += 3 {
			accum(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	for i := range b.Vertices {
		if !missing[i] {
			continue
		}
		n := b.Vertices[i].Normal
		if n.LenSqr() < 1e-12 {
			b.Vertices[i].Normal = mgl32.Vec3{0, -1, 0}
			continue
		}
		b.Vertices[i].Normal = n.Normalize()
	}
}
