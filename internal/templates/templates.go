package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/yawuxi/create-yawuxi-app/internal/manifest"
)

//go:embed all:sets
var embedded embed.FS

const (
	descriptorFile = "template.yaml"
	filesDir       = "files"
	templateSuffix = ".tmpl"
)

// ErrNotFound is returned by Load for an unknown template set name.
var ErrNotFound = errors.New("template set not found")

// Descriptor is the parsed template.yaml of a set.
type Descriptor struct {
	Name        string      `yaml:"name"`
	Version     string      `yaml:"version"`
	Description string      `yaml:"description"`
	Directories []string    `yaml:"directories"`
	Files       []FileEntry `yaml:"files"`

	// Engines maps a tool such as "node" to the semver constraint its
	// version must satisfy.
	Engines map[string]string `yaml:"engines"`
}

// FileEntry maps one output path to its source inside files/.
type FileEntry struct {
	Path        string `yaml:"path"`
	Source      string `yaml:"source,omitempty"`
	Placeholder bool   `yaml:"placeholder,omitempty"`
	Executable  bool   `yaml:"executable,omitempty"`
}

// SourceName returns the source file name, defaulting to the output path.
func (e FileEntry) SourceName() string {
	if e.Source != "" {
		return e.Source
	}
	return e.Path
}

// Set is a loaded template set ready to be rendered.
type Set struct {
	Descriptor
	files fs.FS
}

// Data holds all variables available to .tmpl sources.
type Data struct {
	Name            string // project directory name as typed by the user
	Path            string // absolute project path
	Year            int
	TemplateName    string
	TemplateVersion string
}

// File is one rendered output file. Path is relative to the project root
// and uses forward slashes.
type File struct {
	Path        string
	Content     []byte
	Placeholder bool
	Mode        fs.FileMode
}

// NewData builds the template data for a project.
func (s *Set) NewData(name, projectPath string) Data {
	return Data{
		Name:            name,
		Path:            projectPath,
		Year:            time.Now().Year(),
		TemplateName:    s.Name,
		TemplateVersion: s.Version,
	}
}

// Names lists the embedded template sets.
func Names() ([]string, error) {
	return namesFS(mustSub(embedded, "sets"))
}

// Load reads and validates an embedded template set.
func Load(name string) (*Set, error) {
	return LoadFS(mustSub(embedded, "sets"), name)
}

// LoadFS reads the set stored at <name>/ in fsys: a template.yaml descriptor
// next to a files/ directory. The descriptor is schema-checked and every
// non-placeholder source must exist.
func LoadFS(fsys fs.FS, name string) (*Set, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	raw, err := fs.ReadFile(fsys, path.Join(name, descriptorFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading %s/%s: %w", name, descriptorFile, err)
	}

	result, err := manifest.ValidateTemplateSet(raw)
	if err != nil {
		return nil, fmt.Errorf("validating %s/%s: %w", name, descriptorFile, err)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("invalid %s/%s: %w", name, descriptorFile, err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing %s/%s: %w", name, descriptorFile, err)
	}

	files, err := fs.Sub(fsys, path.Join(name, filesDir))
	if err != nil {
		return nil, fmt.Errorf("opening %s/%s: %w", name, filesDir, err)
	}

	for _, entry := range d.Files {
		if entry.Placeholder {
			continue
		}
		if _, err := fs.Stat(files, entry.SourceName()); err != nil {
			return nil, fmt.Errorf("template %s: source %q for %s: %w", name, entry.SourceName(), entry.Path, err)
		}
	}

	return &Set{Descriptor: d, files: files}, nil
}

// Render produces every file of the set, in descriptor order.
// Placeholders render to empty content.
func (s *Set) Render(data Data) ([]File, error) {
	out := make([]File, 0, len(s.Files))
	for _, entry := range s.Files {
		f := File{
			Path:        entry.Path,
			Placeholder: entry.Placeholder,
			Mode:        0o644,
		}
		if entry.Executable {
			f.Mode = 0o755
		}

		if !entry.Placeholder {
			content, err := s.renderSource(entry.SourceName(), data)
			if err != nil {
				return nil, err
			}
			f.Content = content
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Set) renderSource(source string, data Data) ([]byte, error) {
	raw, err := fs.ReadFile(s.files, source)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", source, err)
	}
	if !strings.HasSuffix(source, templateSuffix) {
		return raw, nil
	}

	tmpl, err := template.New(source).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", source, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", source, err)
	}
	return buf.Bytes(), nil
}

func namesFS(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing template sets: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(fsys, path.Join(e.Name(), descriptorFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
