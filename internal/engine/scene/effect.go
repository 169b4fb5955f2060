package scene

import (
	"fmt"
	"strings"
)

// Effect selects the post-processing filter. Values match the effect uniform
// of the post program.
type Effect int32

const (
	EffectNone Effect = iota
	EffectInvert
	EffectGrayscale
	EffectSharpen
	EffectBlur
	EffectEdge
)

var effectNames = [...]string{"none", "invert", "grayscale", "sharpen", "blur", "edge"}

func (e Effect) String() string {
	if e < 0 || int(e) >= len(effectNames) {
		return fmt.Sprintf("effect(%d)", int32(e))
	}
	return effectNames[e]
}

// ParseEffect resolves an effect name. The empty string means none.
func ParseEffect(name string) (Effect, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return EffectNone, nil
	}
	if name == "greyscale" {
		return EffectGrayscale, nil
	}
	for i, n := range effectNames {
		if n == name {
			return Effect(i), nil
		}
	}
	return EffectNone, fmt.Errorf("unknown post-process effect %q", name)
}
