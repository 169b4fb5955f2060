// Package gfxtest provides a recording gfx.Backend for tests.
package gfxtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

// ErrCompile is returned by CompileProgram when a source contains FailMarker.
var ErrCompile = errors.New("gfxtest: compile failed")

// FailMarker makes CompileProgram fail when present in either source.
const FailMarker = "#error"

// Draw records one draw call with the uniforms visible at the time.
type Draw struct {
	Program  gfx.Program
	Geometry gfx.Geometry
	Count    int
	Indexed  bool
	Target   *Target
	Textures map[int]gfx.Texture
	Cubemaps map[int]gfx.Texture
	Uniforms map[string]any
	Culling  bool
	DepthW   bool
}

// Backend records every call. The zero value is not usable; call New.
type Backend struct {
	Units int

	// Ops is the ordered call log, one short string per call.
	Ops []string

	Programs   map[gfx.Program][2]string
	Textures   map[gfx.Texture]gfx.Image
	Samplings  map[gfx.Texture]gfx.Sampling
	Geometries map[gfx.Geometry]int
	Targets    []*Target
	Draws      []Draw

	// Uniforms holds the last value set per program and name.
	Uniforms map[gfx.Program]map[string]any

	UploadErr error
	Pixels    []byte

	next     uint32
	program  gfx.Program
	target   *Target
	bound    map[int]gfx.Texture
	cubes    map[int]gfx.Texture
	culling  bool
	depthW   bool
	viewport [2]int
}

// New returns a backend reporting units texture units.
func New(units int) *Backend {
	return &Backend{
		Units:      units,
		Programs:   make(map[gfx.Program][2]string),
		Textures:   make(map[gfx.Texture]gfx.Image),
		Samplings:  make(map[gfx.Texture]gfx.Sampling),
		Geometries: make(map[gfx.Geometry]int),
		Uniforms:   make(map[gfx.Program]map[string]any),
		bound:      make(map[int]gfx.Texture),
		cubes:      make(map[int]gfx.Texture),
		depthW:     true,
	}
}

func (b *Backend) id() uint32 {
	b.next++
	return b.next
}

func (b *Backend) log(format string, args ...any) {
	b.Ops = append(b.Ops, fmt.Sprintf(format, args...))
}

// CompileProgram links a fake program unless a source carries FailMarker.
func (b *Backend) CompileProgram(vertexSrc, fragmentSrc string) (gfx.Program, error) {
	if strings.Contains(vertexSrc, FailMarker) || strings.Contains(fragmentSrc, FailMarker) {
		b.log("compile-fail")
		return gfx.NoProgram, ErrCompile
	}
	p := gfx.Program(b.id())
	b.Programs[p] = [2]string{vertexSrc, fragmentSrc}
	b.Uniforms[p] = make(map[string]any)
	b.log("compile %d", p)
	return p, nil
}

func (b *Backend) UseProgram(p gfx.Program) {
	b.program = p
	b.log("use %d", p)
}

func (b *Backend) DeleteProgram(p gfx.Program) {
	delete(b.Programs, p)
	b.log("delete-program %d", p)
}

func (b *Backend) setUniform(name string, v any) {
	if !b.program.Valid() {
		return
	}
	u, ok := b.Uniforms[b.program]
	if !ok {
		return
	}
	u[name] = v
}

func (b *Backend) SetUniformInt(name string, v int32)       { b.setUniform(name, v) }
func (b *Backend) SetUniformFloat(name string, v float32)   { b.setUniform(name, v) }
func (b *Backend) SetUniformVec3(name string, v mgl32.Vec3) { b.setUniform(name, v) }
func (b *Backend) SetUniformVec4(name string, v mgl32.Vec4) { b.setUniform(name, v) }
func (b *Backend) SetUniformMat4(name string, v mgl32.Mat4) { b.setUniform(name, v) }

// Uniform returns the last value set for name on p.
func (b *Backend) Uniform(p gfx.Program, name string) (any, bool) {
	v, ok := b.Uniforms[p][name]
	return v, ok
}

func (b *Backend) UploadTexture(img gfx.Image, s gfx.Sampling) (gfx.Texture, error) {
	if b.UploadErr != nil {
		return gfx.NoTexture, b.UploadErr
	}
	t := gfx.Texture(b.id())
	b.Textures[t] = img
	b.Samplings[t] = s
	b.log("upload-texture %d", t)
	return t, nil
}

func (b *Backend) UploadCubemap(faces [6]gfx.Image, s gfx.Sampling) (gfx.Texture, error) {
	if b.UploadErr != nil {
		return gfx.NoTexture, b.UploadErr
	}
	t := gfx.Texture(b.id())
	b.Textures[t] = faces[0]
	b.Samplings[t] = s
	b.log("upload-cubemap %d", t)
	return t, nil
}

func (b *Backend) DeleteTexture(t gfx.Texture) {
	delete(b.Textures, t)
	delete(b.Samplings, t)
	b.log("delete-texture %d", t)
}

func (b *Backend) BindTexture(unit int, t gfx.Texture) {
	b.bound[unit] = t
	b.log("bind-texture %d %d", unit, t)
}

func (b *Backend) BindCubemap(unit int, t gfx.Texture) {
	b.cubes[unit] = t
	b.log("bind-cubemap %d %d", unit, t)
}

func (b *Backend) MaxTextureUnits() int { return b.Units }

func (b *Backend) UploadGeometry(vertices []gfx.Vertex, indices []uint32) (gfx.Geometry, error) {
	if b.UploadErr != nil {
		return gfx.NoGeometry, b.UploadErr
	}
	g := gfx.Geometry(b.id())
	b.Geometries[g] = len(indices)
	b.log("upload-geometry %d", g)
	return g, nil
}

func (b *Backend) UploadPositions(data []float32, components int) (gfx.Geometry, error) {
	if b.UploadErr != nil {
		return gfx.NoGeometry, b.UploadErr
	}
	g := gfx.Geometry(b.id())
	b.Geometries[g] = len(data) / components
	b.log("upload-positions %d", g)
	return g, nil
}

func (b *Backend) DeleteGeometry(g gfx.Geometry) {
	delete(b.Geometries, g)
	b.log("delete-geometry %d", g)
}

func (b *Backend) DrawIndexed(g gfx.Geometry, count int) { b.draw(g, count, true) }
func (b *Backend) DrawArrays(g gfx.Geometry, count int)  { b.draw(g, count, false) }

func (b *Backend) draw(g gfx.Geometry, count int, indexed bool) {
	if !b.program.Valid() || !g.Valid() {
		b.log("draw-skipped %d", g)
		return
	}
	d := Draw{
		Program:  b.program,
		Geometry: g,
		Count:    count,
		Indexed:  indexed,
		Target:   b.target,
		Textures: copyUnits(b.bound),
		Cubemaps: copyUnits(b.cubes),
		Uniforms: make(map[string]any, len(b.Uniforms[b.program])),
		Culling:  b.culling,
		DepthW:   b.depthW,
	}
	for k, v := range b.Uniforms[b.program] {
		d.Uniforms[k] = v
	}
	b.Draws = append(b.Draws, d)
	b.log("draw %d", g)
}

func (b *Backend) NewTarget(width, height int) (gfx.Target, error) {
	if b.UploadErr != nil {
		return nil, b.UploadErr
	}
	t := &Target{W: width, H: height, Color: gfx.Texture(b.id())}
	b.Targets = append(b.Targets, t)
	b.log("new-target %dx%d", width, height)
	return t, nil
}

func (b *Backend) BindTarget(t gfx.Target) {
	if t == nil {
		b.target = nil
		b.log("bind-target default")
		return
	}
	b.target = t.(*Target)
	b.log("bind-target %d", b.target.Color)
}

func (b *Backend) SetViewport(width, height int) {
	b.viewport = [2]int{width, height}
	b.log("viewport %dx%d", width, height)
}

// Viewport returns the last viewport size.
func (b *Backend) Viewport() (int, int) { return b.viewport[0], b.viewport[1] }

func (b *Backend) Clear(color mgl32.Vec4) { b.log("clear") }

func (b *Backend) SetDepthWrite(enabled bool) {
	b.depthW = enabled
	b.log("depth-write %t", enabled)
}

func (b *Backend) SetDepthTest(enabled bool) { b.log("depth-test %t", enabled) }

func (b *Backend) SetCulling(enabled bool) {
	b.culling = enabled
	b.log("culling %t", enabled)
}

func (b *Backend) ReadPixels(width, height int) []byte {
	b.log("read-pixels %dx%d", width, height)
	if b.Pixels != nil {
		return b.Pixels
	}
	return make([]byte, width*height*4)
}

// Target is a fake offscreen surface.
type Target struct {
	W, H      int
	Color     gfx.Texture
	Resizes   int
	Destroyed bool
}

func (t *Target) Size() (int, int) { return t.W, t.H }

func (t *Target) Resize(width, height int) {
	if width == t.W && height == t.H {
		return
	}
	t.W, t.H = width, height
	t.Resizes++
}

func (t *Target) ColorTexture() gfx.Texture { return t.Color }

func (t *Target) Destroy() { t.Destroyed = true }

// Count returns how many logged ops start with prefix.
func (b *Backend) Count(prefix string) int {
	n := 0
	for _, op := range b.Ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func copyUnits(m map[int]gfx.Texture) map[int]gfx.Texture {
	out := make(map[int]gfx.Texture, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
