package io

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"voxel-engine/scene"
)

var defaultVertexColor = mgl32.Vec3{1, 1, 1}

// objReader accumulates the attribute pools of a Wavefront OBJ file and the
// deduplicated vertices its faces reference.
type objReader struct {
	positions []mgl32.Vec3
	colors    []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2

	out   scene.Builder
	dedup map[scene.Vertex]uint32
}

// LoadOBJ parses positions, optional per-position colors, normals and
// texture coordinates. Polygons are fan triangulated and identical vertices
// are shared.
func LoadOBJ(path string) (scene.Builder, error) {
	f, err := os.Open(path)
	if err != nil {
		return scene.Builder{}, errors.Wrap(err, "failed to open OBJ file")
	}
	defer f.Close()

	r := &objReader{dedup: make(map[scene.Vertex]uint32)}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if err := r.parseLine(scanner.Text()); err != nil {
			return scene.Builder{}, errors.Wrapf(err, "%s:%d", path, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return scene.Builder{}, errors.Wrap(err, "failed to read OBJ file")
	}
	if len(r.out.Indices) == 0 {
		return scene.Builder{}, errors.Errorf("%s: no faces found", path)
	}
	return r.out, nil
}

func (r *objReader) parseLine(text string) error {
	text = strings.TrimSpace(text)
	if text == "" || text[0] == '#' {
		return nil
	}
	fields := strings.Fields(text)
	args := fields[1:]
	switch fields[0] {
	case "v":
		if len(args) < 3 {
			return errors.New("vertex needs three coordinates")
		}
		p, err := parseFloats(args[:3])
		if err != nil {
			return err
		}
		r.positions = append(r.positions, mgl32.Vec3{p[0], p[1], p[2]})
		color := defaultVertexColor
		if len(args) >= 6 {
			c, err := parseFloats(args[3:6])
			if err != nil {
				return err
			}
			color = mgl32.Vec3{c[0], c[1], c[2]}
		}
		r.colors = append(r.colors, color)
	case "vn":
		if len(args) < 3 {
			return errors.New("normal needs three components")
		}
		n, err := parseFloats(args[:3])
		if err != nil {
			return err
		}
		r.normals = append(r.normals, mgl32.Vec3{n[0], n[1], n[2]})
	case "vt":
		if len(args) < 2 {
			return errors.New("texture coordinate needs two components")
		}
		uv, err := parseFloats(args[:2])
		if err != nil {
			return err
		}
		r.uvs = append(r.uvs, mgl32.Vec2{uv[0], uv[1]})
	case "f":
		return r.parseFace(args)
	}
	return nil
}

func (r *objReader) parseFace(args []string) error {
	if len(args) < 3 {
		return errors.Errorf("face has %d vertices, need at least 3", len(args))
	}
	face := make([]uint32, len(args))
	for i, ref := range args {
		v, err := r.faceVertex(ref)
		if err != nil {
			return err
		}
		idx, ok := r.dedup[v]
		if !ok {
			idx = uint32(len(r.out.Vertices))
			r.out.Vertices = append(r.out.Vertices, v)
			r.dedup[v] = idx
		}
		face[i] = idx
	}
	for i := 2; i < len(face); i++ {
		r.out.Indices = append(r.out.Indices, face[0], face[i-1], face[i])
	}
	return nil
}

// faceVertex resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference.
func (r *objReader) faceVertex(ref string) (scene.Vertex, error) {
	parts := strings.Split(ref, "/")

	pi, err := resolveIndex(parts[0], len(r.positions))
	if err != nil {
		return scene.Vertex{}, errors.Wrap(err, "position")
	}
	v := scene.Vertex{Position: r.positions[pi], Color: r.colors[pi]}

	if len(parts) > 1 && parts[1] != "" {
		ti, err := resolveIndex(parts[1], len(r.uvs))
		if err != nil {
			return scene.Vertex{}, errors.Wrap(err, "texture coordinate")
		}
		v.UV = r.uvs[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := resolveIndex(parts[2], len(r.normals))
		if err != nil {
			return scene.Vertex{}, errors.Wrap(err, "normal")
		}
		v.Normal = r.normals[ni]
	}
	return v, nil
}

// resolveIndex turns a 1-based or negative relative OBJ index into a slice
// index.
func resolveIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("bad index %q", s)
	}
	if idx < 0 {
		idx = n + idx + 1
	}
	if idx < 1 || idx > n {
		return 0, errors.Errorf("index %s out of range 1..%d", s, n)
	}
	return idx - 1, nil
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, errors.Errorf("bad number %q", f)
		}
		out[i] = float32(v)
	}
	return out, nil
}
