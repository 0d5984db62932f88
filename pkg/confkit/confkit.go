// Package confkit holds small helpers shared by every config surface:
// path resolution relative to the main config file, typed section loading,
// and one-shot .env ingestion.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands environment variables in file and, when the result is
// relative, anchors it at base. Absolute paths pass through untouched.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory holding the main config file. Section files
// referenced from it resolve against this directory.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// LoadFile parses a config file into T via go-zero's conf loader. With useEnv
// set, ${VAR} references inside the file are expanded from the environment.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	var cfg T
	opts := []conf.Option{}
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	if err := conf.Load(path, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section points at an optional companion config file. The main config names
// the file; Hydrate fills Value from it after the main config is loaded.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and loads it through the supplied
// loader. A blank File leaves Value nil, which callers treat as the section
// being absent.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}
