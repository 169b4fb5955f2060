// Package mesh holds uploaded geometry together with its material textures.
package mesh

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/texture"
)

// ErrTextureUnits is returned by Draw when a mesh carries more textures than
// the caller has units for. Nothing is bound in that case.
var ErrTextureUnits = errors.New("mesh: not enough texture units")

// Mesh is immutable after New. The geometry is owned by the mesh; textures
// belong to the texture cache.
type Mesh struct {
	vertices []gfx.Vertex
	indices  []uint32
	textures []texture.Texture
	geometry gfx.Geometry
}

// New uploads vertices and indices and returns the mesh.
func New(b gfx.Backend, vertices []gfx.Vertex, indices []uint32, textures []texture.Texture) (*Mesh, error) {
	if len(indices) == 0 {
		return nil, errors.New("mesh: no indices")
	}
	for _, i := range indices {
		if int(i) >= len(vertices) {
			return nil, fmt.Errorf("mesh: index %d out of range (%d vertices)", i, len(vertices))
		}
	}

	geom, err := b.UploadGeometry(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("uploading mesh: %w", err)
	}

	return &Mesh{
		vertices: vertices,
		indices:  indices,
		textures: append([]texture.Texture(nil), textures...),
		geometry: geom,
	}, nil
}

// Vertices returns the vertex data. Callers must not modify it.
func (m *Mesh) Vertices() []gfx.Vertex { return m.vertices }

// Indices returns the triangle list. Callers must not modify it.
func (m *Mesh) Indices() []uint32 { return m.indices }

// Textures returns the attached textures in binding order.
func (m *Mesh) Textures() []texture.Texture { return m.textures }

// Geometry returns the backend handle.
func (m *Mesh) Geometry() gfx.Geometry { return m.geometry }

// SamplerName returns the uniform a texture binds to: the role followed by a
// 1-based per-role ordinal, e.g. texture_diffuse1.
func SamplerName(role texture.Role, ordinal int) string {
	return string(role) + strconv.Itoa(ordinal)
}

// Fallback maps a role to the texture bound when a mesh has none of its own
// for that role.
type Fallback map[texture.Role]gfx.Texture

// Draw binds textures to units 0..n-1 and issues an indexed draw with the
// current program. maxUnits is the number of units the mesh may use.
//
// Every role the mesh lacks gets its first sampler pointed at the fallback
// texture on the next free unit. Without a fallback or a free unit the
// sampler points at unit 0 so it never reads a unit left over from
// another pass.
func (m *Mesh) Draw(b gfx.Backend, maxUnits int, fallback Fallback) error {
	if len(m.textures) > maxUnits {
		return fmt.Errorf("%w: need %d, have %d", ErrTextureUnits, len(m.textures), maxUnits)
	}

	counts := make(map[texture.Role]int, len(texture.Roles))
	for unit, tex := range m.textures {
		counts[tex.Role]++
		b.BindTexture(unit, tex.Handle)
		b.SetUniformInt(SamplerName(tex.Role, counts[tex.Role]), int32(unit))
	}

	next := len(m.textures)
	for _, role := range texture.Roles {
		if counts[role] > 0 {
			continue
		}
		unit := 0
		if h := fallback[role]; h.Valid() && next < maxUnits {
			unit = next
			next++
			b.BindTexture(unit, h)
		}
		b.SetUniformInt(SamplerName(role, 1), int32(unit))
	}

	b.DrawIndexed(m.geometry, len(m.indices))
	return nil
}

// Destroy releases the geometry.
func (m *Mesh) Destroy(b gfx.Backend) {
	if m.geometry.Valid() {
		b.DeleteGeometry(m.geometry)
		m.geometry = gfx.NoGeometry
	}
}
