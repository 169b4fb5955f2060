// Package viewer runs the interactive scene viewer: window, input, camera,
// asset loading and the frame loop.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/config"
	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/debug"
	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/input"
	"github.com/Faultbox/sceneview/internal/engine/model"
	"github.com/Faultbox/sceneview/internal/engine/renderer"
	"github.com/Faultbox/sceneview/internal/engine/scene"
	"github.com/Faultbox/sceneview/internal/engine/shader"
	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/internal/engine/window"
	"github.com/Faultbox/sceneview/internal/logger"
	"github.com/Faultbox/sceneview/pkg/formats"
)

// Session owns every resource of a running viewer.
type Session struct {
	cfg *config.Config
	log *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	ctrl     *Controller
	camera   *camera.Camera
	textures *texture.Cache
	models   []*model.Model
	skybox   gfx.Texture
	scene    *scene.Scene
	watcher  *shader.Watcher
	shots    *debug.ScreenshotCapture

	fps   fpsCounter
	start time.Time
}

// New creates the window and GPU state and loads the configured assets.
// Only window and context failures are returned; asset problems are logged.
func New(cfg *config.Config) (*Session, error) {
	s := &Session{
		cfg:   cfg,
		log:   logger.Named("viewer"),
		input: input.New(),
		ctrl:  NewController(),
	}

	var err error
	s.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the context the window just made current.
	s.renderer, err = renderer.New()
	if err != nil {
		s.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	s.camera = camera.New(cameraConfig(cfg.Camera))
	s.textures = texture.NewCache(s.renderer, nil)

	effect, err := scene.ParseEffect(cfg.Render.PostProcess.Effect)
	if err != nil {
		s.log.Warn("using no post-process effect", zap.Error(err))
	}

	width, height := s.window.DrawableSize()
	s.scene, err = scene.New(s.renderer, sceneConfig(cfg, width, height, effect), s.loadSources())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}
	if dropped := configureLights(s.scene.Lights, cfg.Lighting); dropped > 0 {
		s.log.Warn("too many point lights", zap.Int("dropped", dropped))
	}

	s.loadSkybox()
	s.loadModels()
	s.startWatcher()

	format, err := debug.ParseFormat(cfg.Screenshots.Format)
	if err != nil {
		s.log.Warn("saving screenshots as png", zap.Error(err))
	}
	s.shots = debug.NewScreenshotCapture(cfg.Screenshots.Dir, "sceneview", format)

	s.log.Info("viewer initialized",
		zap.Int("models", len(s.models)),
		zap.Bool("skybox", s.skybox.Valid()),
	)
	return s, nil
}

func (s *Session) loadSources() map[string]shader.Source {
	srcs, err := shader.LoadAll(s.cfg.Shaders.Dir)
	if err == nil {
		return srcs
	}
	s.log.Error("reading shaders, using built-in sources", zap.String("dir", s.cfg.Shaders.Dir), zap.Error(err))
	srcs, err = shader.LoadAll("")
	if err != nil {
		s.log.Error("built-in shaders unavailable", zap.Error(err))
	}
	return srcs
}

func (s *Session) loadSkybox() {
	faces := s.cfg.Skybox.Faces
	if len(faces) == 0 {
		return
	}
	if len(faces) != 6 {
		s.log.Warn("skybox needs six faces", zap.Int("faces", len(faces)))
		return
	}
	var paths [6]string
	copy(paths[:], faces)

	tex, err := s.textures.LoadCubemap(paths, s.cfg.Skybox.Flip)
	if err != nil {
		s.log.Warn("skybox not loaded", zap.Error(err))
		return
	}
	s.skybox = tex
	s.scene.SetSkybox(tex)
}

func (s *Session) loadModels() {
	loader := model.Loader{
		Backend:  s.renderer,
		Textures: s.textures,
		Importer: formats.FileImporter{},
	}
	for _, mc := range s.cfg.Models {
		m, err := loader.Load(mc.Path, model.Options{FlipUVs: mc.FlipUVs, FlipTextures: mc.FlipTextures})
		if err != nil {
			s.log.Error("model not loaded", zap.String("name", mc.Name), zap.String("path", mc.Path), zap.Error(err))
		}
		s.models = append(s.models, m)
		s.scene.Add(scene.DrawItem{
			Model:          m,
			Transform:      modelTransform(mc),
			Reflectiveness: mc.Reflectiveness,
			Refractiveness: mc.Refractiveness,
			Specular:       mc.SpecularStrength(),
			Cull:           mc.Culling(s.cfg.Render.CullFaces),
		})
	}
}

func (s *Session) startWatcher() {
	if !s.cfg.Shaders.HotReload {
		return
	}
	if s.cfg.Shaders.Dir == "" {
		s.log.Warn("shader hot reload needs a shader directory")
		return
	}
	w, err := shader.Watch(s.cfg.Shaders.Dir)
	if err != nil {
		s.log.Warn("shader hot reload disabled", zap.Error(err))
		return
	}
	s.watcher = w
	s.log.Info("watching shaders", zap.String("dir", s.cfg.Shaders.Dir))
}

// Run drives the frame loop until the window is closed or Esc is pressed.
func (s *Session) Run() error {
	s.start = time.Now()
	last := s.start

	for {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		s.input.Update()
		f := s.ctrl.Drain(s.input.Events())
		if f.Quit {
			s.log.Info("quit requested")
			return nil
		}
		if f.Resized {
			s.scene.Resize(s.window.DrawableSize())
		}
		if f.LookChanged {
			s.window.SetRelativeMouse(s.ctrl.Looking())
		}

		s.ctrl.Apply(s.camera, dt)
		s.reloadShaders()

		s.scene.RenderFrame(s.camera, float32(now.Sub(s.start).Seconds()))
		if f.Screenshot {
			s.screenshot()
		}
		s.window.SwapBuffers()

		if fps, ok := s.fps.Tick(dt); ok {
			s.window.SetTitle(windowTitle(s.cfg.Window.Title, fps, s.camera))
		}
	}
}

func (s *Session) reloadShaders() {
	if s.watcher == nil {
		return
	}
	names := s.watcher.Pending()
	if len(names) == 0 {
		return
	}

	srcs := make(map[string]shader.Source, len(names))
	for _, name := range names {
		src, err := shader.Load(s.cfg.Shaders.Dir, name)
		if err != nil {
			s.log.Warn("shader not reloaded", zap.String("program", name), zap.Error(err))
			continue
		}
		srcs[name] = src
	}
	if err := s.scene.ReloadPrograms(srcs); err != nil {
		s.log.Warn("shader reload failed, keeping previous program", zap.Error(err))
	}
}

func (s *Session) screenshot() {
	pixels, w, h := s.scene.ReadFrame()
	name, err := s.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		s.log.Error("screenshot failed", zap.Error(err))
		return
	}
	s.log.Info("screenshot saved", zap.String("file", name))
}

// Close releases everything in reverse order of acquisition.
func (s *Session) Close() {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
		s.watcher = nil
	}
	if s.renderer != nil {
		s.releaseGPU(s.renderer)
		s.renderer.Close()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Close()
		s.window = nil
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("closing viewer", zap.Error(err))
	}
}

// releaseGPU frees models, the skybox, the scene and then the texture cache
// the scene's models were resolved from.
func (s *Session) releaseGPU(b gfx.Backend) {
	for _, m := range s.models {
		if m != nil {
			m.Destroy(b)
		}
	}
	s.models = nil
	if s.skybox.Valid() {
		b.DeleteTexture(s.skybox)
		s.skybox = gfx.NoTexture
	}
	if s.scene != nil {
		s.scene.Destroy()
		s.scene = nil
	}
	if s.textures != nil {
		s.textures.Destroy()
		s.textures = nil
	}
}
