package viewer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sceneview/internal/config"
	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/lighting"
	"github.com/Faultbox/sceneview/internal/engine/scene"
)

func cameraConfig(c config.CameraConfig) camera.Config {
	return camera.Config{
		Position:    c.Position,
		Yaw:         c.Yaw,
		Pitch:       c.Pitch,
		Speed:       c.Speed,
		Sensitivity: c.Sensitivity,
	}
}

func sceneConfig(cfg *config.Config, width, height int, effect scene.Effect) scene.Config {
	r := cfg.Render
	return scene.Config{
		Width:             width,
		Height:            height,
		FOV:               r.FOV,
		Near:              r.Near,
		Far:               r.Far,
		ClearColor:        r.ClearColor,
		Cull:              r.CullFaces,
		PostProcess:       r.PostProcess.Enabled,
		Effect:            effect,
		Shininess:         cfg.Lighting.Shininess,
		SpotFollowsCamera: cfg.Lighting.SpotFollowsCamera,
	}
}

// configureLights fills set from the lighting section. Point lights beyond
// the shader capacity are dropped.
func configureLights(set *lighting.Set, l config.LightingConfig) (dropped int) {
	points := make([]lighting.PointLight, 0, len(l.PointLights))
	for _, p := range l.PointLights {
		points = append(points, lighting.PointLight{
			Position:  p.Position,
			Color:     p.Color,
			Linear:    l.Linear,
			Quadratic: l.Quadratic,
		})
	}
	set.SetPoints(points)

	set.Spot = lighting.SpotLight{
		Direction:   mgl32.Vec3{0, 0, -1},
		Color:       mgl32.Vec3{1, 1, 1},
		Linear:      l.Linear,
		Quadratic:   l.Quadratic,
		CutOff:      l.CutOff,
		OuterCutOff: l.OuterCutOff,
	}

	set.Sun = nil
	if l.Sun.Enabled {
		set.Sun = &lighting.DirLight{
			Direction: lighting.SunDirection(l.Sun.Longitude, l.Sun.Latitude),
			Color:     l.Sun.Color,
		}
	}
	return len(points) - len(set.Points())
}

// modelTransform returns translate * rotate * scale for a model entry.
func modelTransform(m config.ModelConfig) mgl32.Mat4 {
	t := mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2])

	r := mgl32.Ident4()
	axis := mgl32.Vec3(m.RotationAxis)
	if m.RotationDeg != 0 && axis.Len() > 0 {
		r = mgl32.HomogRotate3D(mgl32.DegToRad(m.RotationDeg), axis.Normalize())
	}

	s := mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
	return t.Mul4(r).Mul4(s)
}
