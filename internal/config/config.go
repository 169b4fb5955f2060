// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window      WindowConfig     `yaml:"window" toml:"window"`
	Camera      CameraConfig     `yaml:"camera" toml:"camera"`
	Render      RenderConfig     `yaml:"render" toml:"render"`
	Lighting    LightingConfig   `yaml:"lighting" toml:"lighting"`
	Skybox      SkyboxConfig     `yaml:"skybox" toml:"skybox"`
	Shaders     ShaderConfig     `yaml:"shaders" toml:"shaders"`
	Models      []ModelConfig    `yaml:"models" toml:"models"`
	Screenshots ScreenshotConfig `yaml:"screenshots" toml:"screenshots"`
	Logging     LoggingConfig    `yaml:"logging" toml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
}

// CameraConfig holds the initial viewpoint and control rates.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position" toml:"position"`
	Yaw         float32    `yaml:"yaw" toml:"yaw"`
	Pitch       float32    `yaml:"pitch" toml:"pitch"`
	Speed       float32    `yaml:"speed" toml:"speed"`
	Sensitivity float32    `yaml:"sensitivity" toml:"sensitivity"`
}

// RenderConfig holds projection and frame settings.
type RenderConfig struct {
	FOV         float32           `yaml:"fov" toml:"fov"` // degrees
	Near        float32           `yaml:"near" toml:"near"`
	Far         float32           `yaml:"far" toml:"far"`
	ClearColor  [4]float32        `yaml:"clear_color" toml:"clear_color"`
	CullFaces   bool              `yaml:"cull_faces" toml:"cull_faces"`
	PostProcess PostProcessConfig `yaml:"post_process" toml:"post_process"`
}

// PostProcessConfig controls the offscreen pass.
type PostProcessConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Effect  string `yaml:"effect" toml:"effect"` // none, invert, grayscale, sharpen, blur, edge
}

// LightingConfig holds the light set published every frame.
type LightingConfig struct {
	Linear            float32            `yaml:"linear" toml:"linear"`
	Quadratic         float32            `yaml:"quadratic" toml:"quadratic"`
	CutOff            float32            `yaml:"cut_off" toml:"cut_off"`             // degrees
	OuterCutOff       float32            `yaml:"outer_cut_off" toml:"outer_cut_off"` // degrees
	Shininess         float32            `yaml:"shininess" toml:"shininess"`
	SpotFollowsCamera bool               `yaml:"spot_follows_camera" toml:"spot_follows_camera"`
	PointLights       []PointLightConfig `yaml:"point_lights" toml:"point_lights"`
	Sun               SunConfig          `yaml:"sun" toml:"sun"`
}

// SunConfig is an optional directional light.
type SunConfig struct {
	Enabled   bool       `yaml:"enabled" toml:"enabled"`
	Longitude float32    `yaml:"longitude" toml:"longitude"` // degrees around Y
	Latitude  float32    `yaml:"latitude" toml:"latitude"`   // degrees above the horizon
	Color     [3]float32 `yaml:"color" toml:"color"`
}

// PointLightConfig is one point light.
type PointLightConfig struct {
	Position [3]float32 `yaml:"position" toml:"position"`
	Color    [3]float32 `yaml:"color" toml:"color"`
}

// SkyboxConfig lists the cubemap faces in +X, -X, +Y, -Y, +Z, -Z order.
// An empty face list disables the environment pass.
type SkyboxConfig struct {
	Faces []string `yaml:"faces" toml:"faces"`
	Flip  bool     `yaml:"flip" toml:"flip"`
}

// ShaderConfig locates shader sources. An empty Dir uses the built-in sources.
type ShaderConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	HotReload bool   `yaml:"hot_reload" toml:"hot_reload"`
}

// ModelConfig places one imported asset in the world.
type ModelConfig struct {
	Name           string     `yaml:"name" toml:"name"`
	Path           string     `yaml:"path" toml:"path"`
	FlipUVs        bool       `yaml:"flip_uvs" toml:"flip_uvs"`
	FlipTextures   bool       `yaml:"flip_textures" toml:"flip_textures"`
	Position       [3]float32 `yaml:"position" toml:"position"`
	RotationAxis   [3]float32 `yaml:"rotation_axis" toml:"rotation_axis"`
	RotationDeg    float32    `yaml:"rotation_deg" toml:"rotation_deg"`
	Scale          [3]float32 `yaml:"scale" toml:"scale"`
	Reflectiveness float32    `yaml:"reflectiveness" toml:"reflectiveness"`
	Refractiveness float32    `yaml:"refractiveness" toml:"refractiveness"`
	Specular       *float32   `yaml:"specular,omitempty" toml:"specular,omitempty"`     // nil means 1
	CullFaces      *bool      `yaml:"cull_faces,omitempty" toml:"cull_faces,omitempty"` // nil follows render.cull_faces
}

// ScreenshotConfig controls F12 captures.
type ScreenshotConfig struct {
	Dir    string `yaml:"dir" toml:"dir"`
	Format string `yaml:"format" toml:"format"` // png or webp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config reproducing the stock scene.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "sceneview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 5},
			Yaw:         -90,
			Pitch:       0,
			Speed:       5,
			Sensitivity: 0.1,
		},
		Render: RenderConfig{
			FOV:        45,
			Near:       0.1,
			Far:        100,
			ClearColor: [4]float32{0, 0, 1, 1},
			CullFaces:  true,
			PostProcess: PostProcessConfig{
				Enabled: true,
				Effect:  "none",
			},
		},
		Lighting: LightingConfig{
			Linear:            0.09,
			Quadratic:         0.032,
			CutOff:            12.5,
			OuterCutOff:       13.5,
			Shininess:         32,
			SpotFollowsCamera: true,
			PointLights: []PointLightConfig{
				{Position: [3]float32{0.7, 0.2, 2.0}, Color: [3]float32{1, 1, 1}},
				{Position: [3]float32{2.3, -3.3, -4.0}, Color: [3]float32{1, 1, 1}},
				{Position: [3]float32{-4.0, 2.0, -12.0}, Color: [3]float32{1, 1, 1}},
				{Position: [3]float32{0.0, 0.0, -3.0}, Color: [3]float32{1, 1, 1}},
			},
			Sun: SunConfig{
				Longitude: 45,
				Latitude:  45,
				Color:     [3]float32{0.3, 0.3, 0.3},
			},
		},
		Shaders: ShaderConfig{},
		Screenshots: ScreenshotConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultModel returns a model entry for path with identity placement.
func DefaultModel(path string) ModelConfig {
	return ModelConfig{
		Path:         path,
		FlipUVs:      true,
		RotationAxis: [3]float32{0, 1, 0},
		Scale:        [3]float32{1, 1, 1},
	}
}

// SpecularStrength returns the model's specular multiplier.
func (m ModelConfig) SpecularStrength() float32 {
	if m.Specular == nil {
		return 1
	}
	return *m.Specular
}

// Culling reports whether faces of this model are culled given the global setting.
func (m ModelConfig) Culling(global bool) bool {
	if m.CullFaces == nil {
		return global
	}
	return *m.CullFaces
}
