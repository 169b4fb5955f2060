// Package camera provides the free-look viewpoint used by the viewer.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Pitch limits keep the view from flipping over the poles.
const (
	MinPitch float32 = -89
	MaxPitch float32 = 89
)

// WorldUp is the fixed up axis used for strafing, vertical motion and LookAt.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Direction is a movement request along the camera basis.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Config holds the initial camera state.
type Config struct {
	Position    mgl32.Vec3
	Yaw         float32 // degrees
	Pitch       float32 // degrees
	Speed       float32 // world units per second
	Sensitivity float32 // degrees per input unit
}

// DefaultConfig places the camera five units back on +Z looking down -Z.
func DefaultConfig() Config {
	return Config{
		Position:    mgl32.Vec3{0, 0, 5},
		Yaw:         -90,
		Pitch:       0,
		Speed:       5,
		Sensitivity: 0.1,
	}
}

// Camera is a free-look camera driven by yaw and pitch angles.
type Camera struct {
	Position    mgl32.Vec3
	Speed       float32
	Sensitivity float32

	yaw   float32
	pitch float32
	front mgl32.Vec3
}

// New creates a camera from cfg. The pitch is clamped and the front vector
// derived from the angles.
func New(cfg Config) *Camera {
	c := &Camera{
		Position:    cfg.Position,
		Speed:       cfg.Speed,
		Sensitivity: cfg.Sensitivity,
		yaw:         cfg.Yaw,
		pitch:       clampPitch(cfg.Pitch),
	}
	c.front = frontFrom(c.yaw, c.pitch)
	return c
}

// Yaw returns the heading in degrees. It is not wrapped.
func (c *Camera) Yaw() float32 { return c.yaw }

// Pitch returns the elevation in degrees, within [MinPitch, MaxPitch].
func (c *Camera) Pitch() float32 { return c.pitch }

// Front returns the unit look direction.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Right returns the unit strafe direction.
func (c *Camera) Right() mgl32.Vec3 {
	return c.front.Cross(WorldUp).Normalize()
}

// ApplyMovement moves the camera along dir for elapsed seconds.
func (c *Camera) ApplyMovement(dir Direction, elapsed float32) {
	step := c.Speed * elapsed
	if step == 0 {
		return
	}

	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.front.Mul(step))
	case Backward:
		c.Position = c.Position.Sub(c.front.Mul(step))
	case Left:
		c.Position = c.Position.Sub(c.Right().Mul(step))
	case Right:
		c.Position = c.Position.Add(c.Right().Mul(step))
	case Up:
		c.Position = c.Position.Add(WorldUp.Mul(step))
	case Down:
		c.Position = c.Position.Sub(WorldUp.Mul(step))
	}
}

// ApplyLook turns the camera by a pointer delta. Positive dy looks up.
func (c *Camera) ApplyLook(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	c.yaw += dx * c.Sensitivity
	c.pitch = clampPitch(c.pitch + dy*c.Sensitivity)
	c.front = frontFrom(c.yaw, c.pitch)
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), WorldUp)
}

func clampPitch(p float32) float32 {
	return mgl32.Clamp(p, MinPitch, MaxPitch)
}

func frontFrom(yaw, pitch float32) mgl32.Vec3 {
	y := mgl32.DegToRad(yaw)
	p := mgl32.DegToRad(pitch)
	f := mgl32.Vec3{
		math32.Cos(y) * math32.Cos(p),
		math32.Sin(p),
		math32.Sin(y) * math32.Cos(p),
	}
	return f.Normalize()
}
