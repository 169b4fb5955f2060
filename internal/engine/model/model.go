// Package model imports scene files into drawable meshes.
package model

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/mesh"
	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/formats"
)

// TextureSource resolves a texture file, or an image embedded in the scene
// file, to a handle. *texture.Cache implements it.
type TextureSource interface {
	Load(path string, flip bool) (gfx.Texture, int)
	LoadEncoded(key string, data []byte, flip bool) (gfx.Texture, int)
}

// Options control import post-processing.
type Options struct {
	FlipUVs      bool // v becomes 1-v in every texture coordinate
	FlipTextures bool // images are uploaded bottom row first
}

// Bounds is an axis-aligned box in model space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Model is an ordered list of meshes imported from one file. It is
// read-only after Load.
type Model struct {
	path   string
	dir    string
	meshes []*mesh.Mesh
	bounds Bounds

	// loaded is keyed by the texture path as written in the asset.
	loaded map[string]texture.Texture
}

// Loader carries the collaborators Load needs.
type Loader struct {
	Backend  gfx.Backend
	Textures TextureSource
	Importer formats.Importer
}

// Load imports path. On import failure it returns an empty model together
// with the error; the caller may keep and draw the empty model.
func (l Loader) Load(path string, opts Options) (*Model, error) {
	log := logger.Named("model")

	m := &Model{
		path:   path,
		dir:    filepath.Dir(path),
		loaded: make(map[string]texture.Texture),
	}

	flags := formats.Triangulate
	if opts.FlipUVs {
		flags |= formats.FlipUVs
	}
	scene, err := l.Importer.Import(path, flags)
	if err != nil {
		return m, fmt.Errorf("importing %s: %w", path, err)
	}
	if err := scene.Validate(); err != nil {
		return m, fmt.Errorf("importing %s: %w", path, err)
	}
	for _, w := range scene.Warnings {
		log.Debug("import warning", zap.String("path", path), zap.String("warning", w))
	}

	first := true
	stack := []int{scene.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &scene.Nodes[n]

		for _, mi := range node.Meshes {
			raw := &scene.Meshes[mi]
			mm, err := l.convert(m, scene, raw, opts, log)
			if err != nil {
				log.Warn("skipping mesh",
					zap.String("path", path),
					zap.String("node", node.Name),
					zap.Error(err))
				continue
			}
			m.meshes = append(m.meshes, mm)
			m.grow(raw.Positions, first)
			first = false
		}

		// Reverse push keeps sibling order in the pre-order walk.
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}

	log.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.meshes)),
		zap.Int("textures", len(m.loaded)),
		zap.Float32s("min", m.bounds.Min[:]),
		zap.Float32s("max", m.bounds.Max[:]))
	return m, nil
}

func (l Loader) convert(m *Model, scene *formats.Scene, raw *formats.RawMesh, opts Options, log *zap.Logger) (*mesh.Mesh, error) {
	vertices := make([]gfx.Vertex, len(raw.Positions))
	for i, p := range raw.Positions {
		vertices[i].Position = p
		if raw.Normals != nil {
			vertices[i].Normal = raw.Normals[i]
		}
		if raw.UVs != nil {
			vertices[i].TexCoord = raw.UVs[i]
		}
	}
	if raw.Normals == nil {
		log.Debug("mesh has no normals, using zero vectors",
			zap.String("path", m.path),
			zap.String("mesh", raw.Name))
	}

	indices := make([]uint32, 0, len(raw.Faces)*3)
	for _, f := range raw.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	var textures []texture.Texture
	if raw.Material != formats.NoMaterial {
		mat := &scene.Materials[raw.Material]
		textures = append(textures, l.materialTextures(m, scene, mat.Diffuse, texture.Diffuse, opts.FlipTextures)...)
		textures = append(textures, l.materialTextures(m, scene, mat.Specular, texture.Specular, opts.FlipTextures)...)
	}

	return mesh.New(l.Backend, vertices, indices, textures)
}

// materialTextures resolves paths through the model's registry, falling back
// to the shared source. Paths naming an embedded image are decoded from the
// scene's bytes. Failed loads are registered so they are not retried, but
// only valid handles are attached.
func (l Loader) materialTextures(m *Model, scene *formats.Scene, paths []string, role texture.Role, flip bool) []texture.Texture {
	var out []texture.Texture
	for _, p := range paths {
		tex, ok := m.loaded[p]
		if !ok {
			var h gfx.Texture
			if data, embedded := scene.Images[p]; embedded {
				h, _ = l.Textures.LoadEncoded(filepath.Join(m.dir, p), data, flip)
			} else {
				h, _ = l.Textures.Load(filepath.Join(m.dir, p), flip)
			}
			tex = texture.Texture{Handle: h, Role: role, Path: p}
			m.loaded[p] = tex
		}
		if tex.Handle.Valid() {
			out = append(out, tex)
		}
	}
	return out
}

func (m *Model) grow(positions [][3]float32, first bool) {
	for i, p := range positions {
		if first && i == 0 {
			m.bounds = Bounds{Min: p, Max: p}
			continue
		}
		for a := 0; a < 3; a++ {
			m.bounds.Min[a] = min(m.bounds.Min[a], p[a])
			m.bounds.Max[a] = max(m.bounds.Max[a], p[a])
		}
	}
}

// Path returns the file the model was imported from.
func (m *Model) Path() string { return m.path }

// Meshes returns the meshes in traversal order.
func (m *Model) Meshes() []*mesh.Mesh { return m.meshes }

// Bounds returns the model-space bounding box of all meshes.
func (m *Model) Bounds() Bounds { return m.bounds }

// Texture returns the registry entry for a texture path as written in the asset.
func (m *Model) Texture(path string) (texture.Texture, bool) {
	t, ok := m.loaded[path]
	return t, ok
}

// Draw draws every mesh with the bound program, binding fallback textures
// for roles a mesh lacks. Meshes that cannot be drawn are skipped; their
// errors are joined in the result.
func (m *Model) Draw(b gfx.Backend, maxUnits int, fallback mesh.Fallback) error {
	var errs []error
	for i, mm := range m.meshes {
		if err := mm.Draw(b, maxUnits, fallback); err != nil {
			errs = append(errs, fmt.Errorf("mesh %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Destroy releases mesh geometry. Textures belong to the cache.
func (m *Model) Destroy(b gfx.Backend) {
	for _, mm := range m.meshes {
		mm.Destroy(b)
	}
	m.meshes = nil
}
