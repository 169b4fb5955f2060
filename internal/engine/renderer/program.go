package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

// CompileProgram compiles vertex and fragment shaders and links them.
func (r *Renderer) CompileProgram(vertexSrc, fragmentSrc string) (gfx.Program, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return gfx.NoProgram, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return gfx.NoProgram, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return gfx.NoProgram, fmt.Errorf("link: %s", log)
	}

	p := gfx.Program(program)
	r.locations[p] = make(map[string]int32)
	r.log.Debug("shader program created", zap.Uint32("program", program))
	return p, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, log)
	}
	return shader, nil
}

func infoLog(obj uint32, getiv func(uint32, uint32, *int32), getLog func(uint32, int32, *int32, *uint8)) string {
	var logLen int32
	getiv(obj, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return "no info log"
	}
	log := make([]byte, logLen)
	getLog(obj, logLen, nil, &log[0])
	return string(log[:len(log)-1])
}

// UseProgram binds p for subsequent uniform and draw calls.
func (r *Renderer) UseProgram(p gfx.Program) {
	r.program = p
	gl.UseProgram(uint32(p))
}

// DeleteProgram releases p and its cached uniform locations.
func (r *Renderer) DeleteProgram(p gfx.Program) {
	if !p.Valid() {
		return
	}
	if r.program == p {
		r.UseProgram(gfx.NoProgram)
	}
	delete(r.locations, p)
	gl.DeleteProgram(uint32(p))
}

// uniform returns the location of name in the bound program, or -1.
// Lookups are cached per program, misses included.
func (r *Renderer) uniform(name string) int32 {
	if !r.program.Valid() {
		return -1
	}
	cache := r.locations[r.program]
	if loc, ok := cache[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(r.program), gl.Str(name+"\x00"))
	if cache != nil {
		cache[name] = loc
	}
	return loc
}

func (r *Renderer) SetUniformInt(name string, v int32) {
	if loc := r.uniform(name); loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

func (r *Renderer) SetUniformFloat(name string, v float32) {
	if loc := r.uniform(name); loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}

func (r *Renderer) SetUniformVec3(name string, v mgl32.Vec3) {
	if loc := r.uniform(name); loc >= 0 {
		gl.Uniform3fv(loc, 1, &v[0])
	}
}

func (r *Renderer) SetUniformVec4(name string, v mgl32.Vec4) {
	if loc := r.uniform(name); loc >= 0 {
		gl.Uniform4fv(loc, 1, &v[0])
	}
}

func (r *Renderer) SetUniformMat4(name string, v mgl32.Mat4) {
	if loc := r.uniform(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	}
}
