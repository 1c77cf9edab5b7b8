package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yawuxi/create-yawuxi-app/internal/branding"
	"github.com/yawuxi/create-yawuxi-app/internal/config"
	"github.com/yawuxi/create-yawuxi-app/internal/installer"
	"github.com/yawuxi/create-yawuxi-app/internal/scaffold"
	"github.com/yawuxi/create-yawuxi-app/internal/templates"
)

func newDoctorCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that projects can be created and installed",
		Long:  `Check for Node.js and the configured package manager on PATH, and verify the configured template set.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			fmt.Fprintf(out, "%s doctor\n", branding.DisplayName())

			fmt.Fprintln(out, "Runtime check:")
			if !checkBinary(out, "node") {
				failed++
			}
			if !checkBinary(out, st.cfg.PackageManager) {
				failed++
			}

			fmt.Fprintln(out, "Template check:")
			set, ok := checkTemplate(out, st.cfg.Template)
			if !ok {
				failed++
			}
			if set != nil && len(set.Engines) > 0 {
				fmt.Fprintln(out, "Engine check:")
				failed += checkEngines(cmd.Context(), out, set.Engines)
			}

			fmt.Fprintln(out, "Config check:")
			checkConfigFile(out)

			if failed > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d check(s) failed", failed)}
			}
			return nil
		},
	}
}

func checkBinary(out io.Writer, name string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Fprintf(out, "  [MISS] %s not found\n", name)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %s found at %s\n", name, path)
	return true
}

// checkTemplate loads the template set and builds a throwaway plan so the
// package manifest checks run too.
func checkTemplate(out io.Writer, name string) (*templates.Set, bool) {
	set, err := templates.Load(name)
	if err != nil {
		names, _ := templates.Names()
		fmt.Fprintf(out, "  [FAIL] %v (available: %s)\n", err, strings.Join(names, ", "))
		return nil, false
	}

	req := &scaffold.ProjectRequest{Name: "doctor", Path: filepath.Join(os.TempDir(), "doctor")}
	plan, err := scaffold.BuildPlan(req, set)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %s %s: %v\n", set.Name, set.Version, err)
		return set, false
	}
	fmt.Fprintf(out, "  [ OK ] %s %s (%d directories, %d files)\n",
		set.Name, set.Version, len(plan.Directories)-1, len(plan.Files))
	return set, true
}

// checkEngines compares installed tool versions against the template's
// engine constraints and returns the number of failures. Tools that are not
// installed were already reported by the runtime check.
func checkEngines(ctx context.Context, out io.Writer, engines map[string]string) int {
	tools := make([]string, 0, len(engines))
	for tool := range engines {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	failed := 0
	for _, tool := range tools {
		constraint := engines[tool]
		version, err := installer.ProbeVersion(ctx, tool)
		if err != nil {
			fmt.Fprintf(out, "  [SKIP] %s: %v\n", tool, err)
			continue
		}
		ok, err := installer.Satisfies(version, constraint)
		switch {
		case err != nil:
			fmt.Fprintf(out, "  [FAIL] %s: %v\n", tool, err)
			failed++
		case !ok:
			fmt.Fprintf(out, "  [FAIL] %s %s does not satisfy %s\n", tool, version, constraint)
			failed++
		default:
			fmt.Fprintf(out, "  [ OK ] %s %s satisfies %s\n", tool, version, constraint)
		}
	}
	return failed
}

func checkConfigFile(out io.Writer) {
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  [INFO] %s not present, using defaults\n", path)
		return
	}
	fmt.Fprintf(out, "  [ OK ] %s\n", path)
}
