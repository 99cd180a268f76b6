// Package io loads model files into vertex and index data ready for upload.
package io

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"voxel-engine/scene"
)

var ErrUnsupportedFormat = errors.New("io: unsupported model format")

// LoadModel reads an .obj, .gltf or .glb file. Vertices without a normal
// get one computed from the surrounding triangles.
func LoadModel(path string) (scene.Builder, error) {
	if _, err := os.Stat(path); err != nil {
		return scene.Builder{}, errors.Wrap(err, "failed to open model")
	}

	var (
		b   scene.Builder
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		b, err = LoadOBJ(path)
	case ".gltf", ".glb":
		b, err = LoadGLTF(path)
	default:
		return scene.Builder{}, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return scene.Builder{}, err
	}
	b.ComputeNormals()
	return b, nil
}
