package manifest

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	packageSchemaFile  = "package.schema.json"
	templateSchemaFile = "template.schema.json"
)

var (
	printer = message.NewPrinter(language.English)

	packageSchema  = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema(packageSchemaFile) })
	templateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) { return compileSchema(templateSchemaFile) })
)

// ValidationResult contains the outcome of a validation.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue represents a single problem found in a document.
type ValidationIssue struct {
	Path    string // Instance location (e.g., "/name", "/files/3/path")
	Message string // Human-readable error message
	Keyword string // Schema keyword that failed, or "semver" for version checks
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Err folds the issues into a single error, or returns nil when valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		msgs = append(msgs, issue.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource %s: %w", name, err)
	}
	s, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return s, nil
}

// ValidatePackageJSON checks a package.json document: it must be valid JSON,
// satisfy the embedded package schema, carry a semver version and declare
// every dependency with a parseable semver range.
// The error return is for malformed JSON or schema compilation failures.
func ValidatePackageJSON(data []byte) (*ValidationResult, error) {
	schema, err := packageSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	issues, err := validateInstance(schema, inst)
	if err != nil {
		return nil, err
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		// Shape errors are already reported by the schema.
		return newResult(issues), nil
	}

	if pkg.Version != "" {
		if _, err := semver.StrictNewVersion(pkg.Version); err != nil {
			issues = append(issues, ValidationIssue{Path: "/version", Message: err.Error(), Keyword: "semver"})
		}
	}
	issues = append(issues, checkRanges("/dependencies", pkg.Dependencies)...)
	issues = append(issues, checkRanges("/devDependencies", pkg.DevDependencies)...)

	return newResult(issues), nil
}

// ValidateTemplateSet checks a template.yaml descriptor against the embedded
// template schema and requires its version to be valid semver.
func ValidateTemplateSet(data []byte) (*ValidationResult, error) {
	schema, err := templateSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON-compatible types.
	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	issues, err := validateInstance(schema, inst)
	if err != nil {
		return nil, err
	}

	if m, ok := inst.(map[string]any); ok {
		if v, ok := m["version"].(string); ok {
			if _, err := semver.NewVersion(v); err != nil {
				issues = append(issues, ValidationIssue{Path: "/version", Message: err.Error(), Keyword: "semver"})
			}
		}
		if engines, ok := m["engines"].(map[string]any); ok {
			ranges := make(map[string]string, len(engines))
			for tool, c := range engines {
				if s, ok := c.(string); ok {
					ranges[tool] = s
				}
			}
			issues = append(issues, checkRanges("/engines", ranges)...)
		}
	}

	return newResult(issues), nil
}

func newResult(issues []ValidationIssue) *ValidationResult {
	if len(issues) == 0 {
		return &ValidationResult{Valid: true}
	}
	return &ValidationResult{Valid: false, Issues: issues}
}

// validateInstance runs the schema and flattens any failure into issues.
func validateInstance(schema *jsonschema.Schema, inst any) ([]ValidationIssue, error) {
	err := schema.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return extractIssues(ve), nil
}

// checkRanges parses every dependency range as a semver constraint.
func checkRanges(base string, deps map[string]string) []ValidationIssue {
	var issues []ValidationIssue
	for _, name := range sortedKeys(deps) {
		if _, err := semver.NewConstraint(deps[name]); err != nil {
			issues = append(issues, ValidationIssue{
				Path:    base + "/" + name,
				Message: fmt.Sprintf("invalid version range %q: %v", deps[name], err),
				Keyword: "semver",
			})
		}
	}
	return issues
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
func extractIssues(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	collectValidationIssues(ve, &issues)

	if len(issues) == 0 {
		return []ValidationIssue{{
			Message: ve.Error(),
		}}
	}
	return deduplicateIssues(issues)
}

func collectValidationIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}

		keyword := ""
		msg := ""
		if ve.ErrorKind != nil {
			if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
			msg = ve.ErrorKind.LocalizedString(printer)
		}

		// Container keywords carry no useful detail of their own.
		if keyword == "allOf" || keyword == "$ref" || keyword == "" {
			return
		}

		*issues = append(*issues, ValidationIssue{
			Path:    path,
			Message: msg,
			Keyword: keyword,
		})
		return
	}

	for _, cause := range ve.Causes {
		collectValidationIssues(cause, issues)
	}
}

func deduplicateIssues(issues []ValidationIssue) []ValidationIssue {
	seen := make(map[string]bool)
	var result []ValidationIssue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

// normalizeYAML converts YAML-decoded values into JSON-marshalable ones.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = normalizeYAML(v)
		}
		return a
	default:
		return val
	}
}
