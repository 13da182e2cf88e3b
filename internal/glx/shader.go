package glx

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.2-compatibility/gl"
)

// compileShader compiles a single shader, returning the driver's info log on
// failure. The partially created object is deleted before returning.
func compileShader(kind uint32, source string) (uint32, error) {
	log.Debugf("compiling shader:\n%s", source)

	shader := gl.CreateShader(kind)
	if shader == 0 {
		return 0, &ResourceAllocationError{Resource: "shader object"}
	}

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		infoLog := shaderInfoLog(shader)
		gl.DeleteShader(shader)
		return 0, &CompileLinkError{Stage: "compile", Log: infoLog}
	}
	return shader, nil
}

// linkProgram links the given shaders into a program. Shaders are detached
// afterwards in either case; a failed program is deleted.
func linkProgram(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	if program == 0 {
		return 0, &ResourceAllocationError{Resource: "program object"}
	}

	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)
	for _, s := range shaders {
		gl.DetachShader(program, s)
	}

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		infoLog := programInfoLog(program)
		gl.DeleteProgram(program)
		return 0, &CompileLinkError{Stage: "link", Log: infoLog}
	}
	return program, nil
}

// buildProgram compiles the given vertex and/or fragment sources (either may
// be empty) and links them. The intermediate shader objects are always
// deleted before returning.
func buildProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	var shaders []uint32
	defer func() {
		for _, s := range shaders {
			gl.DeleteShader(s)
		}
	}()

	if vertexSrc != "" {
		s, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
		if err != nil {
			return 0, err
		}
		shaders = append(shaders, s)
	}
	if fragmentSrc != "" {
		s, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
		if err != nil {
			return 0, err
		}
		shaders = append(shaders, s)
	}
	if len(shaders) == 0 {
		return 0, &InvalidInputError{Reason: "no shader sources given"}
	}
	return linkProgram(shaders...)
}

// uniformLoc resolves a uniform location. A missing uniform is logged, not
// fatal; every use site guards with a >= 0 check.
func uniformLoc(program uint32, name string) int32 {
	loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	if loc < 0 {
		log.Warnf("failed to get location of uniform %q, might be troublesome", name)
	}
	return loc
}

func shaderInfoLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func programInfoLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

// Program is a linked main program with its resolved uniform locations, used
// by the programmable render path.
type Program struct {
	prog         uint32
	unifmOpacity int32
	unifmInvert  int32
	unifmTex     int32
}

// LoadProgram builds a window shader program from GLSL source and resolves
// the uniforms the render pass feeds.
func LoadProgram(vertexSrc, fragmentSrc string) (*Program, error) {
	prog, err := buildProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &Program{
		prog:         prog,
		unifmOpacity: uniformLoc(prog, "opacity"),
		unifmInvert:  uniformLoc(prog, "invert_color"),
		unifmTex:     uniformLoc(prog, "tex"),
	}, nil
}

func (p *Program) Release() {
	if p == nil || p.prog == 0 {
		return
	}
	gl.DeleteProgram(p.prog)
	p.prog = 0
	p.unifmOpacity = -1
	p.unifmInvert = -1
	p.unifmTex = -1
}
