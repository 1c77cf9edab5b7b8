package scaffold

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrMissingName is returned when no project name was given.
	ErrMissingName = errors.New("project name is required")
	// ErrAlreadyExists matches *AlreadyExistsError.
	ErrAlreadyExists = errors.New("project already exists")
)

// AlreadyExistsError reports that the resolved project path is taken.
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("project already exists: %s", e.Path)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// ProjectRequest is a validated request to create a project.
type ProjectRequest struct {
	Name string // as given by the user
	Path string // absolute path the project will be created at
}

// ExistsFunc reports whether a path exists.
type ExistsFunc func(path string) (bool, error)

// ExistsIn returns an ExistsFunc backed by fsys.
func ExistsIn(fsys afero.Fs) ExistsFunc {
	return func(path string) (bool, error) {
		return afero.Exists(fsys, path)
	}
}

// Validate resolves name against workDir and checks that nothing exists at
// the resulting path. It never modifies the filesystem.
//
// The name is not sanitised: separators and reserved characters are passed
// through to the path as typed.
func Validate(name, workDir string, exists ExistsFunc) (*ProjectRequest, error) {
	if name == "" {
		return nil, ErrMissingName
	}

	// Resolve first so the existence check sees the real target.
	projectPath, err := filepath.Abs(filepath.Join(workDir, name))
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}

	found, err := exists(projectPath)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", projectPath, err)
	}
	if found {
		return nil, &AlreadyExistsError{Path: projectPath}
	}

	return &ProjectRequest{Name: name, Path: projectPath}, nil
}
