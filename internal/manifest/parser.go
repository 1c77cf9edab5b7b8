package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// PackageJSON holds the fields of a package.json the scaffolder cares about.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ParsePackageJSON decodes a package.json document.
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return &pkg, nil
}

// Declared reports whether name appears in dependencies or devDependencies.
func (p *PackageJSON) Declared(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

// Missing returns the packages from required that are not declared, sorted.
func (p *PackageJSON) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if !p.Declared(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// MissingDependencyError reports packages a config file uses but the
// package manifest does not declare.
type MissingDependencyError struct {
	File     string
	Packages []string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s requires packages not declared in package.json: %s", e.File, strings.Join(e.Packages, ", "))
}

// CheckRequires returns a *MissingDependencyError when any package in
// required is not declared by p.
func (p *PackageJSON) CheckRequires(file string, required []string) error {
	if missing := p.Missing(required); len(missing) > 0 {
		return &MissingDependencyError{File: file, Packages: missing}
	}
	return nil
}

// CheckConsistency checks that every package webpackConfig loads, through
// require() or as a named loader, is declared by the package.json in pkgJSON.
func CheckConsistency(pkgJSON, webpackConfig []byte) error {
	pkg, err := ParsePackageJSON(pkgJSON)
	if err != nil {
		return err
	}
	required := append(RequiredPackages(webpackConfig), LoaderPackages(webpackConfig)...)
	return pkg.CheckRequires("webpack.config.js", required)
}

var requirePattern = regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`)

// nodeBuiltins are modules provided by Node itself.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "crypto": true,
	"events": true, "fs": true, "http": true, "https": true, "module": true,
	"net": true, "os": true, "path": true, "process": true, "querystring": true,
	"stream": true, "url": true, "util": true, "zlib": true,
}

// RequiredPackages returns the package names a CommonJS config file loads
// with require(), excluding relative paths and Node built-ins. The result is
// sorted and free of duplicates.
func RequiredPackages(source []byte) []string {
	seen := make(map[string]bool)
	for _, m := range requirePattern.FindAllSubmatch(source, -1) {
		if name := packageName(string(m[1])); name != "" {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

var loaderPattern = regexp.MustCompile(`["']((?:@[a-z0-9._~-]+/)?[a-z0-9._~-]+-loader)["']`)

// LoaderPackages returns the webpack loaders a config file names as string
// literals (e.g. use: ["style-loader", "css-loader"]), sorted and unique.
func LoaderPackages(source []byte) []string {
	seen := make(map[string]bool)
	for _, m := range loaderPattern.FindAllSubmatch(source, -1) {
		seen[string(m[1])] = true
	}
	return sortedKeys(seen)
}

// BabelPackages returns the presets and plugins named in a .babelrc,
// expanded to their package names the way Babel resolves them: "env" is
// babel-preset-env, "@babel/env" is @babel/preset-env, "@org/x" is
// @org/babel-preset-x and "module:foo" is foo.
func BabelPackages(babelrc []byte) ([]string, error) {
	var cfg struct {
		Presets []json.RawMessage `json:"presets"`
		Plugins []json.RawMessage `json:"plugins"`
	}
	if err := json.Unmarshal(babelrc, &cfg); err != nil {
		return nil, fmt.Errorf("parsing .babelrc: %w", err)
	}

	seen := make(map[string]bool)
	for kind, entries := range map[string][]json.RawMessage{"preset": cfg.Presets, "plugin": cfg.Plugins} {
		for _, entry := range entries {
			name, err := babelEntryName(entry)
			if err != nil {
				return nil, err
			}
			if pkg := packageName(expandBabelName(kind, name)); pkg != "" {
				seen[pkg] = true
			}
		}
	}
	return sortedKeys(seen), nil
}

// babelEntryName reads an entry that is either "name" or ["name", {options}].
func babelEntryName(entry json.RawMessage) (string, error) {
	var name string
	if err := json.Unmarshal(entry, &name); err == nil {
		return name, nil
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(entry, &tuple); err != nil || len(tuple) == 0 {
		return "", fmt.Errorf("unexpected .babelrc entry %s", entry)
	}
	if err := json.Unmarshal(tuple[0], &name); err != nil {
		return "", fmt.Errorf("unexpected .babelrc entry %s", entry)
	}
	return name, nil
}

// expandBabelName applies Babel's shorthand rules for kind ("preset" or
// "plugin"). Paths are returned unchanged.
func expandBabelName(kind, name string) string {
	if rest, ok := strings.CutPrefix(name, "module:"); ok {
		return rest
	}
	if name == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/") {
		return name
	}

	prefix := "babel-" + kind
	if rest, ok := strings.CutPrefix(name, "@babel/"); ok {
		if strings.HasPrefix(rest, kind+"-") {
			return name
		}
		return "@babel/" + kind + "-" + rest
	}
	if strings.HasPrefix(name, "@") {
		scope, pkg, found := strings.Cut(name, "/")
		switch {
		case !found:
			return scope + "/" + prefix
		case strings.HasPrefix(pkg, prefix):
			return name
		default:
			return scope + "/" + prefix + "-" + pkg
		}
	}
	if name == prefix || strings.HasPrefix(name, prefix+"-") {
		return name
	}
	return prefix + "-" + name
}

// packageName reduces a module specifier to its package name, or "" when
// the specifier is relative, absolute or a Node built-in.
func packageName(spec string) string {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "node:") {
		return ""
	}
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	if nodeBuiltins[parts[0]] {
		return ""
	}
	return parts[0]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
