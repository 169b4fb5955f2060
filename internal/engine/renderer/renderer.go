// Package renderer implements gfx.Backend on OpenGL 4.1 core.
//
// Every method must be called on the thread that owns the GL context.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/framebuffer"
	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/logger"
)

// Renderer handles all OpenGL calls.
type Renderer struct {
	log *zap.Logger

	program   gfx.Program
	locations map[gfx.Program]map[string]int32

	geometries map[gfx.Geometry]*geometry
	maxUnits   int
}

var _ gfx.Backend = (*Renderer)(nil)

// New initializes OpenGL and sets the default pipeline state.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r := &Renderer{
		log:        logger.Named("renderer"),
		locations:  make(map[gfx.Program]map[string]int32),
		geometries: make(map[gfx.Geometry]*geometry),
	}

	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	r.maxUnits = int(units)

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int("textureUnits", r.maxUnits),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return r, nil
}

// MaxTextureUnits returns the fragment stage sampler limit.
func (r *Renderer) MaxTextureUnits() int { return r.maxUnits }

// NewTarget creates an offscreen colour and depth surface.
func (r *Renderer) NewTarget(width, height int) (gfx.Target, error) {
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// BindTarget makes t the current render target; nil restores the window.
func (r *Renderer) BindTarget(t gfx.Target) {
	if t == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	t.(*framebuffer.Framebuffer).Bind()
}

func (r *Renderer) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (r *Renderer) Clear(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (r *Renderer) SetDepthWrite(enabled bool) {
	gl.DepthMask(enabled)
}

func (r *Renderer) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (r *Renderer) SetCulling(enabled bool) {
	if enabled {
		gl.Enable(gl.CULL_FACE)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
}

// ReadPixels reads RGBA rows from the bound surface, bottom row first.
func (r *Renderer) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// Close releases the geometry still owned by the renderer.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("geometries", len(r.geometries)))
	for g := range r.geometries {
		r.DeleteGeometry(g)
	}
	for p := range r.locations {
		r.DeleteProgram(p)
	}
}
