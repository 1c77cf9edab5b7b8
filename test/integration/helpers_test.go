//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/yawuxi/create-yawuxi-app/internal/cli"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir string // YAWUXI_HOME, holds config.yaml
	WorkDir string // where projects are created
	BinDir  string // fake package managers, first on PATH
}

// setupTestEnv creates isolated temp directories, points YAWUXI_HOME at one
// of them and makes WorkDir the current directory. Everything is restored
// after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake package managers are shell scripts")
	}

	env := &testEnv{
		HomeDir: t.TempDir(),
		WorkDir: t.TempDir(),
		BinDir:  t.TempDir(),
	}

	t.Setenv("YAWUXI_HOME", env.HomeDir)
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(env.WorkDir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	return env
}

// writeFakeManager installs a fake package manager called name. It records
// its working directory and arguments in .fake-install inside the project and
// exits with exitCode.
func writeFakeManager(t *testing.T, env *testEnv, name string, exitCode int) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"{ pwd; echo \"$@\"; } > .fake-install\n" +
		"echo \"added 0 packages\"\n" +
		"exit " + strconv.Itoa(exitCode) + "\n"
	path := filepath.Join(env.BinDir, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// runCLI runs the command line in-process and returns its output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := cli.Run(context.Background(), cli.BuildInfo{Version: "test"}, args, strings.NewReader(""), &out, &errOut)
	return out.String(), errOut.String(), cli.ExitCode(err)
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
