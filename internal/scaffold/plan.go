package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yawuxi/create-yawuxi-app/internal/manifest"
	"github.com/yawuxi/create-yawuxi-app/internal/templates"
)

var (
	// ErrOutsideProject is returned for a planned path that escapes the project root.
	ErrOutsideProject = errors.New("path is outside the project directory")
	// ErrUndeclaredDirectory is returned for a file whose parent directory
	// would not exist by the time it is written.
	ErrUndeclaredDirectory = errors.New("file parent directory is not declared")
	// ErrDuplicatePath is returned when two planned files share a path.
	ErrDuplicatePath = errors.New("file is declared more than once")
)

// FileSpec is one file to write, with fully rendered content.
type FileSpec struct {
	Path        string // absolute
	Content     []byte
	Mode        os.FileMode
	Placeholder bool
}

// Plan is everything a run will create, computed before any write happens.
// Directories starts with the project root itself.
type Plan struct {
	Request     *ProjectRequest
	Template    string
	Version     string
	Directories []string
	Files       []FileSpec
}

// BuildPlan renders set for req and checks the result: every path must stay
// under the project root, every file's parent must be created first, and the
// package manifest must agree with the build configuration.
func BuildPlan(req *ProjectRequest, set *templates.Set) (*Plan, error) {
	rendered, err := set.Render(set.NewData(req.Name, req.Path))
	if err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", set.Name, err)
	}

	plan := &Plan{
		Request:     req,
		Template:    set.Name,
		Version:     set.Version,
		Directories: []string{req.Path},
	}

	// Directories MkdirAll will have created, including implicit parents.
	created := map[string]bool{req.Path: true}

	for _, rel := range set.Directories {
		dir, err := resolveUnder(req.Path, rel)
		if err != nil {
			return nil, err
		}
		plan.Directories = append(plan.Directories, dir)
		for d := dir; d != req.Path && !created[d]; d = filepath.Dir(d) {
			created[d] = true
		}
	}

	seen := make(map[string]bool, len(rendered))
	for _, f := range rendered {
		p, err := resolveUnder(req.Path, f.Path)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, f.Path)
		}
		seen[p] = true
		if !created[filepath.Dir(p)] {
			return nil, fmt.Errorf("%w: %s", ErrUndeclaredDirectory, f.Path)
		}
		plan.Files = append(plan.Files, FileSpec{
			Path:        p,
			Content:     f.Content,
			Mode:        f.Mode,
			Placeholder: f.Placeholder,
		})
	}

	if err := checkManifests(rendered); err != nil {
		return nil, err
	}
	return plan, nil
}

// resolveUnder joins a slash-separated relative path onto root and rejects
// results that leave root.
func resolveUnder(root, rel string) (string, error) {
	if filepath.IsAbs(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, rel)
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, p)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, rel)
	}
	return p, nil
}

// checkManifests validates package.json and cross-checks the packages that
// webpack.config.js and .babelrc load against it. Template sets without a
// package.json are not checked.
func checkManifests(files []templates.File) error {
	content := make(map[string][]byte, len(files))
	for _, f := range files {
		content[f.Path] = f.Content
	}

	pkgData, ok := content["package.json"]
	if !ok {
		return nil
	}

	result, err := manifest.ValidatePackageJSON(pkgData)
	if err != nil {
		return fmt.Errorf("package.json: %w", err)
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("package.json is invalid: %w", err)
	}

	if webpack, ok := content["webpack.config.js"]; ok {
		if err := manifest.CheckConsistency(pkgData, webpack); err != nil {
			return err
		}
	}
	if babelrc, ok := content[".babelrc"]; ok {
		required, err := manifest.BabelPackages(babelrc)
		if err != nil {
			return err
		}
		pkg, err := manifest.ParsePackageJSON(pkgData)
		if err != nil {
			return err
		}
		if err := pkg.CheckRequires(".babelrc", required); err != nil {
			return err
		}
	}
	return nil
}
