package viewer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/sceneview/internal/engine/camera"
	"github.com/Faultbox/sceneview/internal/engine/input"
)

func keyDown(k sdl.Scancode) input.Event { return input.Event{Type: input.EventKeyDown, Key: k} }
func keyUp(k sdl.Scancode) input.Event   { return input.Event{Type: input.EventKeyUp, Key: k} }

func TestControllerHeldKeysMove(t *testing.T) {
	tests := []struct {
		key  sdl.Scancode
		want mgl32.Vec3
	}{
		{sdl.SCANCODE_W, mgl32.Vec3{0, 0, 4}},
		{sdl.SCANCODE_S, mgl32.Vec3{0, 0, 6}},
		{sdl.SCANCODE_A, mgl32.Vec3{-1, 0, 5}},
		{sdl.SCANCODE_D, mgl32.Vec3{1, 0, 5}},
		{sdl.SCANCODE_Q, mgl32.Vec3{0, 1, 5}},
		{sdl.SCANCODE_E, mgl32.Vec3{0, -1, 5}},
	}
	for _, tt := range tests {
		c := NewController()
		cam := camera.New(camera.DefaultConfig())
		c.Drain([]input.Event{keyDown(tt.key)})

		c.Apply(cam, 0.2)
		if !near(cam.Position[:], tt.want[:]) {
			t.Errorf("key %d: position %v, want %v", tt.key, cam.Position, tt.want)
		}

		// Still held on the next frame with no new events.
		c.Drain(nil)
		c.Apply(cam, 0)
		if !near(cam.Position[:], tt.want[:]) {
			t.Errorf("key %d: zero elapsed moved the camera", tt.key)
		}
	}
}

func TestControllerKeyUpStops(t *testing.T) {
	c := NewController()
	cam := camera.New(camera.DefaultConfig())

	c.Drain([]input.Event{keyDown(sdl.SCANCODE_W), keyUp(sdl.SCANCODE_W)})
	c.Apply(cam, 1)
	if cam.Position != (mgl32.Vec3{0, 0, 5}) {
		t.Errorf("released key moved camera to %v", cam.Position)
	}
}

func TestControllerLookNeedsRightButton(t *testing.T) {
	c := NewController()
	cam := camera.New(camera.DefaultConfig())

	c.Drain([]input.Event{{Type: input.EventMouseMove, XRel: 50, YRel: 50}})
	c.Apply(cam, 0)
	if cam.Yaw() != -90 || cam.Pitch() != 0 {
		t.Errorf("look applied without the button: yaw %v pitch %v", cam.Yaw(), cam.Pitch())
	}

	f := c.Drain([]input.Event{
		{Type: input.EventMouseDown, Button: input.ButtonRight},
		{Type: input.EventMouseMove, XRel: 10, YRel: -20},
	})
	if !f.LookChanged || !c.Looking() {
		t.Fatal("right button did not enable look")
	}
	c.Apply(cam, 0)
	if cam.Yaw() != -89 || cam.Pitch() != 2 {
		t.Errorf("yaw %v pitch %v, want -89 and 2", cam.Yaw(), cam.Pitch())
	}

	// Deltas are consumed once.
	c.Apply(cam, 0)
	if cam.Yaw() != -89 {
		t.Errorf("look applied twice: yaw %v", cam.Yaw())
	}

	f = c.Drain([]input.Event{{Type: input.EventMouseUp, Button: input.ButtonRight}})
	if !f.LookChanged || c.Looking() {
		t.Error("releasing the button did not end look")
	}
}

func TestControllerLeftButtonIgnored(t *testing.T) {
	c := NewController()
	f := c.Drain([]input.Event{{Type: input.EventMouseDown, Button: input.ButtonLeft}})
	if f.LookChanged || c.Looking() {
		t.Error("left button toggled look")
	}
}

func TestControllerFrameRequests(t *testing.T) {
	tests := []struct {
		name   string
		events []input.Event
		want   Frame
	}{
		{"quit", []input.Event{{Type: input.EventQuit}}, Frame{Quit: true}},
		{"escape", []input.Event{keyDown(sdl.SCANCODE_ESCAPE)}, Frame{Quit: true}},
		{"screenshot", []input.Event{keyDown(sdl.SCANCODE_F12)}, Frame{Screenshot: true}},
		{
			"repeat ignored",
			[]input.Event{{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12, Repeat: true}},
			Frame{},
		},
		{
			"last resize wins",
			[]input.Event{
				{Type: input.EventWindowResize, Width: 640, Height: 480},
				{Type: input.EventWindowResize, Width: 800, Height: 600},
			},
			Frame{Resized: true, Width: 800, Height: 600},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewController().Drain(tt.events)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
