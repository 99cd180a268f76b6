package io

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"voxel-engine/scene"
)

// LoadGLTF merges every triangle primitive reachable from the document's
// default scene into one builder, baking node transforms into positions and
// normals. Vertex colors come from the primitive's base color factor.
func LoadGLTF(path string) (scene.Builder, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return scene.Builder{}, errors.Wrapf(err, "failed to open glTF %s", path)
	}

	var out scene.Builder
	for _, root := range rootNodes(doc) {
		if err := appendNode(doc, root, mgl32.Ident4(), &out, 0); err != nil {
			return scene.Builder{}, errors.Wrap(err, path)
		}
	}
	if len(out.Vertices) == 0 {
		return scene.Builder{}, errors.Errorf("%s: no triangle geometry found", path)
	}
	return out, nil
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// maxNodeDepth guards against cyclic node graphs in malformed files.
const maxNodeDepth = 64

func appendNode(doc *gltf.Document, index int, parent mgl32.Mat4, out *scene.Builder, depth int) error {
	if index < 0 || index >= len(doc.Nodes) {
		return errors.Errorf("node %d out of range", index)
	}
	if depth > maxNodeDepth {
		return errors.New("node hierarchy too deep")
	}
	node := doc.Nodes[index]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
		for pi, prim := range doc.Meshes[*node.Mesh].Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			b, err := readPrimitive(doc, prim)
			if err != nil {
				return errors.Wrapf(err, "mesh %d primitive %d", *node.Mesh, pi)
			}
			transformBuilder(&b, world)
			out.Append(b)
		}
	}
	for _, child := range node.Children {
		if err := appendNode(doc, child, world, out, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (scene.Builder, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return scene.Builder{}, errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return scene.Builder{}, errors.Wrap(err, "positions")
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return scene.Builder{}, errors.Wrap(err, "normals")
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return scene.Builder{}, errors.Wrap(err, "texture coordinates")
		}
	}

	color := baseColor(doc, prim)
	b := scene.Builder{Vertices: make([]scene.Vertex, len(positions))}
	for i, p := range positions {
		v := scene.Vertex{Position: mgl32.Vec3{p[0], p[1], p[2]}, Color: color}
		if i < len(normals) {
			v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
		}
		b.Vertices[i] = v
	}

	if prim.Indices != nil {
		if b.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return scene.Builder{}, errors.Wrap(err, "indices")
		}
	} else {
		b.Indices = make([]uint32, len(b.Vertices))
		for i := range b.Indices {
			b.Indices[i] = uint32(i)
		}
	}
	return b, nil
}

func baseColor(doc *gltf.Document, prim *gltf.Primitive) mgl32.Vec3 {
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return defaultVertexColor
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil {
		return defaultVertexColor
	}
	c := pbr.BaseColorFactorOrDefault()
	return mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
}

func transformBuilder(b *scene.Builder, m mgl32.Mat4) {
	if m == mgl32.Ident4() {
		return
	}
	normalMatrix := m.Mat3().Inv().Transpose()
	for i := range b.Vertices {
		v := &b.Vertices[i]
		v.Position = m.Mul4x1(v.Position.Vec4(1)).Vec3()
		if v.Normal.LenSqr() > 0 {
			v.Normal = normalMatrix.Mul3x1(v.Normal).Normalize()
		}
	}
}
