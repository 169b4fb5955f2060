// Package gfx defines the graphics backend contract used by the viewer.
//
// Handles are opaque backend identifiers. The zero value of every handle type
// means "none": uploads that fail return it and draws with it are skipped.
package gfx

import "github.com/go-gl/mathgl/mgl32"

// Program is a linked shading program.
type Program uint32

// Texture is an uploaded 2D texture or cubemap.
type Texture uint32

// Geometry is an uploaded vertex array with its buffers.
type Geometry uint32

const (
	NoProgram  Program  = 0
	NoTexture  Texture  = 0
	NoGeometry Geometry = 0
)

// Valid reports whether the handle refers to a live program.
func (p Program) Valid() bool { return p != NoProgram }

// Valid reports whether the handle refers to a live texture.
func (t Texture) Valid() bool { return t != NoTexture }

// Valid reports whether the handle refers to live geometry.
func (g Geometry) Valid() bool { return g != NoGeometry }

// Vertex is the interleaved vertex layout at attribute locations 0, 1 and 2.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = 32

// Image is a decoded raster ready for upload. Rows are stored top to bottom
// unless the producer flipped them.
type Image struct {
	Width    int
	Height   int
	Channels int // 1, 3 or 4
	Pix      []byte
}

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

// Sampling describes how a texture is filtered and wrapped.
type Sampling struct {
	Wrap    Wrap
	Mipmaps bool
}

// MaterialSampling is used for every model texture: repeat wrap,
// linear-mipmap-linear minification and linear magnification.
var MaterialSampling = Sampling{Wrap: WrapRepeat, Mipmaps: true}

// CubemapSampling is used for environment boxes: clamped on all three axes
// with linear filtering.
var CubemapSampling = Sampling{Wrap: WrapClampToEdge}

// FlatSampling is used for 1x1 placeholder textures.
var FlatSampling = Sampling{Wrap: WrapRepeat}

// Backend is the subset of a GPU API the viewer draws with. Uniform setters
// address the program bound by the last UseProgram call.
type Backend interface {
	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	UseProgram(p Program)
	DeleteProgram(p Program)

	SetUniformInt(name string, v int32)
	SetUniformFloat(name string, v float32)
	SetUniformVec3(name string, v mgl32.Vec3)
	SetUniformVec4(name string, v mgl32.Vec4)
	SetUniformMat4(name string, v mgl32.Mat4)

	UploadTexture(img Image, s Sampling) (Texture, error)
	UploadCubemap(faces [6]Image, s Sampling) (Texture, error)
	DeleteTexture(t Texture)
	BindTexture(unit int, t Texture)
	BindCubemap(unit int, t Texture)
	MaxTextureUnits() int

	UploadGeometry(vertices []Vertex, indices []uint32) (Geometry, error)
	UploadPositions(data []float32, components int) (Geometry, error)
	DeleteGeometry(g Geometry)
	DrawIndexed(g Geometry, count int)
	DrawArrays(g Geometry, count int)

	NewTarget(width, height int) (Target, error)
	BindTarget(t Target) // nil binds the default surface
	SetViewport(width, height int)
	Clear(color mgl32.Vec4)
	SetDepthWrite(enabled bool)
	SetDepthTest(enabled bool)
	SetCulling(enabled bool)
	ReadPixels(width, height int) []byte
}

// Target is an offscreen colour and depth surface.
type Target interface {
	Size() (width, height int)
	Resize(width, height int)
	ColorTexture() Texture
	Destroy()
}
