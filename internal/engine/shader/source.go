// Package shader locates GLSL program sources and watches them for edits.
//
// Every program has a built-in source pair compiled into the binary. A shader
// directory may override either stage by holding <name>.vert or <name>.frag.
package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Program names used by the viewer.
const (
	Main   = "main"
	Skybox = "skybox"
	Post   = "post"
)

// Names lists every program the viewer compiles.
var Names = []string{Main, Skybox, Post}

//go:embed glsl/*.vert glsl/*.frag
var builtin embed.FS

// Source is the vertex and fragment text of one program.
type Source struct {
	Name     string
	Vertex   string
	Fragment string

	// Origin describes where each stage came from, for logs.
	VertexOrigin   string
	FragmentOrigin string
}

// Builtin returns the compiled-in source of a program.
func Builtin(name string) (Source, error) {
	return Load("", name)
}

// Load reads a program from dir, falling back to the built-in text for any
// stage the directory does not provide. An empty dir uses built-ins only.
func Load(dir, name string) (Source, error) {
	s := Source{Name: name}
	var err error
	if s.Vertex, s.VertexOrigin, err = stage(dir, name+".vert"); err != nil {
		return Source{}, err
	}
	if s.Fragment, s.FragmentOrigin, err = stage(dir, name+".frag"); err != nil {
		return Source{}, err
	}
	return s, nil
}

// LoadAll loads every program in Names, keyed by name.
func LoadAll(dir string) (map[string]Source, error) {
	out := make(map[string]Source, len(Names))
	for _, name := range Names {
		s, err := Load(dir, name)
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

func stage(dir, file string) (text, origin string, err error) {
	if dir != "" {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("reading shader %s: %w", path, err)
		}
	}

	data, err := builtin.ReadFile("glsl/" + file)
	if err != nil {
		return "", "", fmt.Errorf("unknown shader %s: %w", file, err)
	}
	return string(data), "builtin", nil
}
