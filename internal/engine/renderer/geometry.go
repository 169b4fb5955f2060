package renderer

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

var errNoVertices = errors.New("no vertex data")

type geometry struct {
	vao, vbo, ebo uint32
}

// UploadGeometry stores interleaved vertices and indices in a new vertex array
// with position, normal and texture coordinate at locations 0, 1 and 2.
func (r *Renderer) UploadGeometry(vertices []gfx.Vertex, indices []uint32) (gfx.Geometry, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return gfx.NoGeometry, errNoVertices
	}

	g := &geometry{}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*gfx.VertexStride, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, gfx.VertexStride, 0)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, gfx.VertexStride, 3*4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, gfx.VertexStride, 6*4)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	h := gfx.Geometry(g.vao)
	r.geometries[h] = g
	return h, nil
}

// UploadPositions stores tightly packed float positions of the given width at
// location 0, for the skybox cube and the screen quad.
func (r *Renderer) UploadPositions(data []float32, components int) (gfx.Geometry, error) {
	if len(data) == 0 || components <= 0 {
		return gfx.NoGeometry, errNoVertices
	}

	g := &geometry{}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, int32(components), gl.FLOAT, false, int32(components*4), 0)

	gl.BindVertexArray(0)

	h := gfx.Geometry(g.vao)
	r.geometries[h] = g
	return h, nil
}

func (r *Renderer) DeleteGeometry(h gfx.Geometry) {
	g, ok := r.geometries[h]
	if !ok {
		return
	}
	delete(r.geometries, h)
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}

// DrawIndexed draws count indices as triangles. Draws without a bound program
// are skipped.
func (r *Renderer) DrawIndexed(h gfx.Geometry, count int) {
	if !r.program.Valid() || !h.Valid() {
		return
	}
	gl.BindVertexArray(uint32(h))
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// DrawArrays draws count vertices as triangles.
func (r *Renderer) DrawArrays(h gfx.Geometry, count int) {
	if !r.program.Valid() || !h.Valid() {
		return
	}
	gl.BindVertexArray(uint32(h))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(count))
	gl.BindVertexArray(0)
}
