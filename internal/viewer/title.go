package viewer

import (
	"fmt"

	"github.com/Faultbox/sceneview/internal/engine/camera"
)

// fpsCounter reports the frame rate once per second.
type fpsCounter struct {
	frames  int
	elapsed float32
}

// Tick records one frame of dt seconds. ok is true when a full second has
// passed; the counter then restarts.
func (f *fpsCounter) Tick(dt float32) (fps float32, ok bool) {
	f.frames++
	f.elapsed += dt
	if f.elapsed < 1 {
		return 0, false
	}
	fps = float32(f.frames) / f.elapsed
	f.frames, f.elapsed = 0, 0
	return fps, true
}

func windowTitle(base string, fps float32, cam *camera.Camera) string {
	p := cam.Position
	return fmt.Sprintf("%s | %.0f fps | pos (%.2f, %.2f, %.2f) yaw %.1f pitch %.1f",
		base, fps, p[0], p[1], p[2], cam.Yaw(), cam.Pitch())
}
