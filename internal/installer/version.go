package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses the output of `<tool> --version`. Node prints
// "v20.11.0", npm prints "10.2.4"; both are accepted.
func ParseVersion(output string) (*semver.Version, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty version output")
	}
	// "yarn --version" and friends print only the number; some tools
	// prefix it with a name, so take the last field.
	v := strings.TrimPrefix(fields[len(fields)-1], "v")
	version, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", v, err)
	}
	return version, nil
}

// ProbeVersion runs `<bin> --version` and parses the result.
func ProbeVersion(ctx context.Context, bin string) (*semver.Version, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s not found: %w", bin, err)
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s --version: %w", bin, err)
	}
	return ParseVersion(out.String())
}

// Satisfies reports whether version meets constraint (e.g. ">=14.18.0").
func Satisfies(version *semver.Version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	return c.Check(version), nil
}
