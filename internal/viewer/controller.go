package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/input"
)

// movementKeys maps held keys to camera directions.
var movementKeys = map[sdl.Scancode]camera.Direction{
	sdl.SCANCODE_W: camera.Forward,
	sdl.SCANCODE_S: camera.Backward,
	sdl.SCANCODE_A: camera.Left,
	sdl.SCANCODE_D: camera.Right,
	sdl.SCANCODE_Q: camera.Up,
	sdl.SCANCODE_E: camera.Down,
}

// directions fixes the order in which held keys are applied.
var directions = []camera.Direction{
	camera.Forward, camera.Backward, camera.Left, camera.Right, camera.Up, camera.Down,
}

// Frame is what one drained event queue asks of the session.
type Frame struct {
	Quit        bool
	Screenshot  bool
	Resized     bool
	Width       int
	Height      int
	LookChanged bool
}

// Controller turns queued input events into camera motion.
type Controller struct {
	held    map[camera.Direction]bool
	looking bool
	lookDX  float32
	lookDY  float32
}

// NewController creates a controller with no keys held.
func NewController() *Controller {
	return &Controller{held: make(map[camera.Direction]bool, len(directions))}
}

// Looking reports whether pointer motion turns the camera.
func (c *Controller) Looking() bool { return c.looking }

// Drain consumes one frame of events. A resize reports the last size seen.
func (c *Controller) Drain(events []input.Event) Frame {
	var f Frame
	for _, e := range events {
		switch e.Type {
		case input.EventQuit:
			f.Quit = true

		case input.EventWindowResize:
			f.Resized = true
			f.Width, f.Height = e.Width, e.Height

		case input.EventKeyDown:
			if dir, ok := movementKeys[e.Key]; ok {
				c.held[dir] = true
				continue
			}
			if e.Repeat {
				continue
			}
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				f.Quit = true
			case sdl.SCANCODE_F12:
				f.Screenshot = true
			}

		case input.EventKeyUp:
			if dir, ok := movementKeys[e.Key]; ok {
				c.held[dir] = false
			}

		case input.EventMouseDown:
			if e.Button == input.ButtonRight && !c.looking {
				c.looking = true
				f.LookChanged = true
			}

		case input.EventMouseUp:
			if e.Button == input.ButtonRight && c.looking {
				c.looking = false
				f.LookChanged = true
			}

		case input.EventMouseMove:
			if c.looking {
				c.lookDX += float32(e.XRel)
				// screen y grows downwards
				c.lookDY -= float32(e.YRel)
			}
		}
	}
	return f
}

// Apply moves cam for every held key over elapsed seconds, then turns it by
// the pointer motion gathered since the last call.
func (c *Controller) Apply(cam *camera.Camera, elapsed float32) {
	for _, dir := range directions {
		if c.held[dir] {
			cam.ApplyMovement(dir, elapsed)
		}
	}
	cam.ApplyLook(c.lookDX, c.lookDY)
	c.lookDX, c.lookDY = 0, 0
}
