package io

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTriangleGLB saves a one-triangle document whose node is translated
// by offset and whose material is red.
func writeTriangleGLB(t *testing.T, offset [3]float64) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Materials = []*gltf.Material{{
		Name:                 "red",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorFactor: &[4]float64{1, 0, 0, 1}},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0), Translation: offset}}
	doc.Scene = gltf.Index(0)
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestLoadGLTFBakesNodeTransform(t *testing.T) {
	b, err := LoadModel(writeTriangleGLB(t, [3]float64{10, 0, 0}))
	require.NoError(t, err)

	require.Len(t, b.Vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2}, b.Indices)
	assertVec3Near(t, mgl32.Vec3{11, 0, 0}, b.Vertices[1].Position)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Vertices[0].Color)
	assertVec3Near(t, mgl32.Vec3{0, 0, 1}, b.Vertices[0].Normal)
}

func TestNodeMatrixComposesTRS(t *testing.T) {
	n := &gltf.Node{
		Translation: [3]float64{1, 2, 3},
		Scale:       [3]float64{2, 2, 2},
		Rotation:    [4]float64{0, 0, 0, 1},
	}
	m := nodeMatrix(n)
	p := m.Mul4x1(mgl32.Vec4{1, 1, 1, 1}).Vec3()
	assertVec3Near(t, mgl32.Vec3{3, 4, 5}, p)
}

func TestLoadGLTFMissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}
