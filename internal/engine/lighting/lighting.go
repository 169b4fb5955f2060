// Package lighting holds the light set and publishes it to the shading stage.
package lighting

import (
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

// MaxPointLights is the size of the pointLights array in the main shader.
const MaxPointLights = 8

// PointLight is an omnidirectional light with distance attenuation.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Linear    float32
	Quadratic float32
}

// SpotLight is a cone light. CutOff and OuterCutOff are half-angles in degrees.
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Linear      float32
	Quadratic   float32
	CutOff      float32
	OuterCutOff float32
}

// DirLight is a light at infinity, such as the sun.
type DirLight struct {
	Direction mgl32.Vec3 // towards the light
	Color     mgl32.Vec3
}

// SunDirection converts longitude (around Y) and latitude (above the horizon)
// in degrees to a unit vector pointing towards the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lon := mgl32.DegToRad(longitude)
	lat := mgl32.DegToRad(latitude)
	return mgl32.Vec3{
		math32.Cos(lat) * math32.Sin(lon),
		math32.Sin(lat),
		math32.Cos(lat) * math32.Cos(lon),
	}
}

// Set is the light state published every frame.
type Set struct {
	points []PointLight
	Spot   SpotLight
	Sun    *DirLight // nil disables the directional term
}

// NewSet creates an empty light set.
func NewSet() *Set {
	return &Set{points: make([]PointLight, 0, MaxPointLights)}
}

// AddPoint adds a point light. Returns false if the set is full.
func (s *Set) AddPoint(l PointLight) bool {
	if len(s.points) >= MaxPointLights {
		return false
	}
	s.points = append(s.points, l)
	return true
}

// SetPoints replaces all point lights, truncating to MaxPointLights.
func (s *Set) SetPoints(lights []PointLight) {
	s.points = s.points[:0]
	if len(lights) > MaxPointLights {
		lights = lights[:MaxPointLights]
	}
	s.points = append(s.points, lights...)
}

// Points returns the point lights.
func (s *Set) Points() []PointLight { return s.points }

// FollowCamera places the spotlight at the eye, aimed along the view.
func (s *Set) FollowCamera(position, front mgl32.Vec3) {
	s.Spot.Position = position
	s.Spot.Direction = front
}

// Publish sets the light uniforms on the bound program. Spot cut-offs are
// sent as cosines.
func (s *Set) Publish(b gfx.Backend) {
	for i, l := range s.points {
		prefix := "pointLights[" + strconv.Itoa(i) + "]."
		b.SetUniformVec3(prefix+"position", l.Position)
		b.SetUniformVec3(prefix+"color", l.Color)
		b.SetUniformFloat(prefix+"linear", l.Linear)
		b.SetUniformFloat(prefix+"quadratic", l.Quadratic)
	}
	b.SetUniformInt("pointLightCount", int32(len(s.points)))

	b.SetUniformVec3("spotLight.position", s.Spot.Position)
	b.SetUniformVec3("spotLight.direction", s.Spot.Direction)
	b.SetUniformVec3("spotLight.color", s.Spot.Color)
	b.SetUniformFloat("spotLight.linear", s.Spot.Linear)
	b.SetUniformFloat("spotLight.quadratic", s.Spot.Quadratic)
	b.SetUniformFloat("spotLight.cutOff", math32.Cos(mgl32.DegToRad(s.Spot.CutOff)))
	b.SetUniformFloat("spotLight.outerCutOff", math32.Cos(mgl32.DegToRad(s.Spot.OuterCutOff)))

	if s.Sun != nil {
		b.SetUniformInt("dirLightEnabled", 1)
		b.SetUniformVec3("dirLight.direction", s.Sun.Direction)
		b.SetUniformVec3("dirLight.color", s.Sun.Color)
	} else {
		b.SetUniformInt("dirLightEnabled", 0)
	}
}
