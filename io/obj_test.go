package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3Near(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], 1e-4, "want %v\ngot  %v", want, got)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const quadOBJ = `# unit quad
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestLoadOBJFanTriangulates(t *testing.T) {
	b, err := LoadOBJ(writeTemp(t, "quad.obj", quadOBJ))
	require.NoError(t, err)

	assert.Len(t, b.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, b.Indices)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Vertices[0].Color)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, b.Vertices[1].Color)
	assert.Equal(t, defaultVertexColor, b.Vertices[2].Color)
	assert.Equal(t, mgl32.Vec2{1, 1}, b.Vertices[2].UV)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, b.Vertices[3].Normal)
}

func TestLoadOBJSharesIdenticalVertices(t *testing.T) {
	b, err := LoadOBJ(writeTemp(t, "two.obj", `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 1 3 4
`))
	require.NoError(t, err)
	assert.Len(t, b.Vertices, 4)
	assert.Len(t, b.Indices, 6)
}

func TestLoadOBJNegativeIndices(t *testing.T) {
	b, err := LoadOBJ(writeTemp(t, "rel.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"))
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, b.Vertices[2].Position)
}

func TestLoadOBJErrors(t *testing.T) {
	cases := map[string]string{
		"no faces":     "v 0 0 0\n",
		"out of range": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n",
		"bad number":   "v 0 zero 0\n",
		"short face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad uv index": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadOBJ(writeTemp(t, "bad.obj", src))
			assert.Error(t, err)
		})
	}
}

func TestLoadModelDispatch(t *testing.T) {
	b, err := LoadModel(writeTemp(t, "tri.OBJ", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	require.NoError(t, err)
	for _, v := range b.Vertices {
		assertVec3Near(t, mgl32.Vec3{0, 0, 1}, v.Normal)
	}

	_, err = LoadModel(writeTemp(t, "mesh.fbx", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
