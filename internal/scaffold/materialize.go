package scaffold

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/yawuxi/create-yawuxi-app/internal/logger"
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// IOError is a filesystem failure during materialization.
type IOError struct {
	Op   string // "mkdir" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Stats counts what Materialize wrote.
type Stats struct {
	Directories int
	Files       int
	Bytes       int64
}

// Materialize creates dirs, then writes files, both in the given order.
// Existing directories are accepted and existing files are truncated. It
// stops at the first failure and leaves whatever was already written.
func Materialize(fsys afero.Fs, dirs []string, files []FileSpec) (*Stats, error) {
	log := logger.ForComponent("materialize")
	stats := &Stats{}

	for _, dir := range dirs {
		if err := fsys.MkdirAll(dir, dirMode); err != nil {
			return stats, &IOError{Op: "mkdir", Path: dir, Err: err}
		}
		log.Debug("created directory", "path", dir)
		stats.Directories++
	}

	for _, f := range files {
		mode := f.Mode
		if mode == 0 {
			mode = fileMode
		}
		if err := afero.WriteFile(fsys, f.Path, f.Content, mode); err != nil {
			return stats, &IOError{Op: "write", Path: f.Path, Err: err}
		}
		log.Debug("wrote file", "path", f.Path, "bytes", len(f.Content))
		stats.Files++
		stats.Bytes += int64(len(f.Content))
	}

	return stats, nil
}
