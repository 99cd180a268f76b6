package scene

import "github.com/go-gl/mathgl/mgl32"

type boxFace struct {
	normal  mgl32.Vec3
	corners [4]mgl32.Vec3
}

// boxFaces lists each face's corners counter-clockwise seen from outside,
// on the unit cube [0,1]^3.
var boxFaces = [6]boxFace{
	{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}}},
	{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
	{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}}},
	{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
}

var faceUVs = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// BoxBuilder returns an axis-aligned box spanning [origin, origin+size] with 24
// vertices and 36 indices.
func BoxBuilder(origin, size, color mgl32.Vec3) Builder {
	b := Builder{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, face := range boxFaces {
		base := uint32(len(b.Vertices))
		for i, c := range face.corners {
			b.Vertices = append(b.Vertices, Vertex{
				Position: origin.Add(mgl32.Vec3{c[0] * size[0], c[1] * size[1], c[2] * size[2]}),
				Color:    color,
				Normal:   face.normal,
				UV:       faceUVs[i],
			})
		}
		b.Indices = append(b.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return b
}

// CubeBuilder returns a unit cube centred on the origin.
func CubeBuilder(color mgl32.Vec3) Builder {
	return BoxBuilder(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{1, 1, 1}, color)
}
