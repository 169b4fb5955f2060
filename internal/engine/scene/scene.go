// Package scene orchestrates one frame: environment box, lit models and the
// post-processing pass.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/lighting"
	"github.com/Faultbox/sceneview/internal/engine/mesh"
	"github.com/Faultbox/sceneview/internal/engine/model"
	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/internal/logger"
)

// Config contains scene configuration options.
type Config struct {
	Width  int
	Height int

	FOV  float32 // vertical, degrees
	Near float32
	Far  float32

	ClearColor mgl32.Vec4
	Cull       bool

	PostProcess bool
	Effect      Effect

	Shininess         float32
	SpotFollowsCamera bool
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:             1280,
		Height:            720,
		FOV:               45,
		Near:              0.1,
		Far:               100,
		ClearColor:        mgl32.Vec4{0, 0, 1, 1},
		Cull:              true,
		PostProcess:       true,
		Shininess:         32,
		SpotFollowsCamera: true,
	}
}

// DrawItem places a model in the world with its material overrides.
type DrawItem struct {
	Model          *model.Model
	Transform      mgl32.Mat4
	Reflectiveness float32
	Refractiveness float32
	Specular       float32
	Cull           bool
}

// Scene manages the programs, surfaces and draw list of the viewer.
type Scene struct {
	config Config
	b      gfx.Backend
	log    *zap.Logger

	programs map[string]gfx.Program
	target   gfx.Target

	skyboxCube gfx.Geometry
	screenQuad gfx.Geometry
	skybox     gfx.Texture

	// fallback fills material roles a mesh has no texture for: white
	// diffuse and black specular.
	fallback mesh.Fallback

	// Lights is published to the main program every frame.
	Lights *lighting.Set

	items  []DrawItem
	warned map[*model.Model]bool
}

// New creates a scene. Programs that fail to compile are logged and left
// unset; their draws are skipped. Only surface allocation errors are returned.
func New(b gfx.Backend, cfg Config, sources map[string]shader.Source) (*Scene, error) {
	cfg.Width, cfg.Height = clampSize(cfg.Width), clampSize(cfg.Height)

	s := &Scene{
		config:   cfg,
		b:        b,
		log:      logger.Named("scene"),
		programs: make(map[string]gfx.Program, len(shader.Names)),
		Lights:   lighting.NewSet(),
		warned:   make(map[*model.Model]bool),
		fallback: make(mesh.Fallback, len(texture.Roles)),
	}

	for _, name := range shader.Names {
		src, ok := sources[name]
		if !ok {
			s.log.Error("shader program missing", zap.String("program", name))
			continue
		}
		p, err := b.CompileProgram(src.Vertex, src.Fragment)
		if err != nil {
			s.log.Error("shader program failed",
				zap.String("program", name),
				zap.String("vertex", src.VertexOrigin),
				zap.String("fragment", src.FragmentOrigin),
				zap.Error(err),
			)
			continue
		}
		s.programs[name] = p
	}

	var err error
	s.skyboxCube, err = b.UploadPositions(skyboxVertices, 3)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating skybox geometry: %w", err)
	}
	s.screenQuad, err = b.UploadPositions(quadVertices, 2)
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating screen quad: %w", err)
	}

	flat := map[texture.Role]gfx.Image{
		texture.Diffuse:  texture.Flat(255, 255, 255, 255),
		texture.Specular: texture.Flat(0, 0, 0, 255),
	}
	for _, role := range texture.Roles {
		h, err := b.UploadTexture(flat[role], gfx.FlatSampling)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating %s fallback: %w", role, err)
		}
		s.fallback[role] = h
	}

	if cfg.PostProcess {
		s.target, err = b.NewTarget(cfg.Width, cfg.Height)
		if err != nil {
			s.Destroy()
			return nil, fmt.Errorf("creating offscreen target: %w", err)
		}
	}

	b.SetViewport(cfg.Width, cfg.Height)
	return s, nil
}

func clampSize(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Config returns the current configuration.
func (s *Scene) Config() Config { return s.config }

// Program returns the handle of a named program, or gfx.NoProgram.
func (s *Scene) Program(name string) gfx.Program { return s.programs[name] }

// SetSkybox sets the environment cubemap. gfx.NoTexture disables the box.
func (s *Scene) SetSkybox(t gfx.Texture) { s.skybox = t }

// SetEffect switches the post-processing filter.
func (s *Scene) SetEffect(e Effect) { s.config.Effect = e }

// Add appends an item to the draw list.
func (s *Scene) Add(item DrawItem) { s.items = append(s.items, item) }

// Items returns the draw list.
func (s *Scene) Items() []DrawItem { return s.items }

// Size returns the viewport size.
func (s *Scene) Size() (width, height int) { return s.config.Width, s.config.Height }

// Resize updates the viewport and reallocates the offscreen target.
func (s *Scene) Resize(width, height int) {
	width, height = clampSize(width), clampSize(height)
	if width == s.config.Width && height == s.config.Height {
		return
	}
	s.config.Width = width
	s.config.Height = height
	if s.target != nil {
		s.target.Resize(width, height)
	}
	s.b.SetViewport(width, height)
	s.log.Debug("scene resized", zap.Int("width", width), zap.Int("height", height))
}

// environmentUnit is the texture unit reserved for the cubemap. Meshes may
// use every unit below it.
func (s *Scene) environmentUnit() int {
	u := s.b.MaxTextureUnits() - 1
	if u < 0 {
		return 0
	}
	return u
}

// Projection returns the perspective matrix for the current viewport.
func (s *Scene) Projection() mgl32.Mat4 {
	aspect := float32(s.config.Width) / float32(s.config.Height)
	return mgl32.Perspective(mgl32.DegToRad(s.config.FOV), aspect, s.config.Near, s.config.Far)
}

// RenderFrame draws one frame to the default surface.
func (s *Scene) RenderFrame(cam *camera.Camera, time float32) {
	view := cam.ViewMatrix()
	proj := s.Projection()
	envUnit := s.environmentUnit()

	if s.target != nil {
		s.b.BindTarget(s.target)
	} else {
		s.b.BindTarget(nil)
	}
	s.b.SetViewport(s.config.Width, s.config.Height)
	s.b.Clear(s.config.ClearColor)

	if s.skybox.Valid() {
		s.drawSkybox(view, proj, envUnit)
	}

	s.drawModels(cam, view, proj, envUnit, time)

	if s.target != nil {
		s.drawPost()
	}
}

func (s *Scene) drawSkybox(view, proj mgl32.Mat4, envUnit int) {
	s.b.SetDepthWrite(false)
	s.b.SetCulling(false)

	s.b.UseProgram(s.programs[shader.Skybox])
	s.b.SetUniformMat4("viewMatrix", view.Mat3().Mat4())
	s.b.SetUniformMat4("perspectiveMatrix", proj)
	s.b.SetUniformInt("skybox", int32(envUnit))
	s.b.BindCubemap(envUnit, s.skybox)
	s.b.DrawArrays(s.skyboxCube, skyboxVertexCount)

	s.b.SetCulling(s.config.Cull)
	s.b.SetDepthWrite(true)
}

func (s *Scene) drawModels(cam *camera.Camera, view, proj mgl32.Mat4, envUnit int, time float32) {
	s.b.UseProgram(s.programs[shader.Main])
	s.b.SetUniformMat4("viewMatrix", view)
	s.b.SetUniformMat4("perspectiveMatrix", proj)
	s.b.SetUniformVec3("cameraPosition", cam.Position)
	s.b.SetUniformFloat("time", time)

	if s.config.SpotFollowsCamera {
		s.Lights.FollowCamera(cam.Position, cam.Front())
	}
	s.Lights.Publish(s.b)

	s.b.SetUniformInt("skybox", int32(envUnit))
	s.b.BindCubemap(envUnit, s.skybox)
	s.b.SetUniformFloat("material.shininess", s.config.Shininess)
	s.b.SetUniformVec4("material.diffuse", mgl32.Vec4{1, 1, 1, 1})

	for _, item := range s.items {
		if item.Model == nil {
			continue
		}
		s.b.SetUniformMat4("modelMatrix", item.Transform)
		sp := item.Specular
		s.b.SetUniformVec4("material.specular", mgl32.Vec4{sp, sp, sp, 1})
		s.b.SetUniformFloat("material.reflectiveness", item.Reflectiveness)
		s.b.SetUniformFloat("material.refractiveness", item.Refractiveness)
		s.b.SetCulling(item.Cull)

		if err := item.Model.Draw(s.b, envUnit, s.fallback); err != nil && !s.warned[item.Model] {
			s.warned[item.Model] = true
			s.log.Warn("meshes not drawn", zap.String("model", item.Model.Path()), zap.Error(err))
		}
	}
	s.b.SetCulling(s.config.Cull)
}

func (s *Scene) drawPost() {
	s.b.BindTarget(nil)
	s.b.SetViewport(s.config.Width, s.config.Height)
	s.b.Clear(s.config.ClearColor)
	s.b.SetDepthTest(false)

	s.b.UseProgram(s.programs[shader.Post])
	s.b.BindTexture(0, s.target.ColorTexture())
	s.b.SetUniformInt("screenTexture", 0)
	s.b.SetUniformInt("effect", int32(s.config.Effect))
	s.b.DrawArrays(s.screenQuad, quadVertexCount)
	s.b.BindTexture(0, gfx.NoTexture)

	s.b.SetDepthTest(true)
}

// ReadFrame returns the RGBA pixels of the default surface, bottom row first.
func (s *Scene) ReadFrame() (pixels []byte, width, height int) {
	s.b.BindTarget(nil)
	return s.b.ReadPixels(s.config.Width, s.config.Height), s.config.Width, s.config.Height
}

// ReloadPrograms recompiles the given programs. A program that fails keeps
// its previous version; the failures are returned joined.
func (s *Scene) ReloadPrograms(sources map[string]shader.Source) error {
	var errs []error
	for _, name := range shader.Names {
		src, ok := sources[name]
		if !ok {
			continue
		}
		p, err := s.b.CompileProgram(src.Vertex, src.Fragment)
		if err != nil {
			errs = append(errs, fmt.Errorf("program %s: %w", name, err))
			continue
		}
		if old := s.programs[name]; old.Valid() {
			s.b.DeleteProgram(old)
		}
		s.programs[name] = p
		s.log.Info("shader program reloaded", zap.String("program", name))
	}
	return errors.Join(errs...)
}

// Destroy releases programs, geometry, fallback textures and the offscreen
// target. Models and the skybox texture belong to their loaders.
func (s *Scene) Destroy() {
	for name, p := range s.programs {
		s.b.DeleteProgram(p)
		delete(s.programs, name)
	}
	if s.skyboxCube.Valid() {
		s.b.DeleteGeometry(s.skyboxCube)
		s.skyboxCube = gfx.NoGeometry
	}
	if s.screenQuad.Valid() {
		s.b.DeleteGeometry(s.screenQuad)
		s.screenQuad = gfx.NoGeometry
	}
	for role, h := range s.fallback {
		s.b.DeleteTexture(h)
		delete(s.fallback, role)
	}
	if s.target != nil {
		s.target.Destroy()
		s.target = nil
	}
}
