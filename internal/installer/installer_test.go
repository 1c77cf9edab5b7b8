package installer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeManager puts an executable shell script named bin on PATH.
func fakeManager(t *testing.T, bin, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, bin), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)
}

func TestNew_Defaults(t *testing.T) {
	pm := New("", nil)
	if pm.Bin != "npm" {
		t.Errorf("Bin = %q, want %q", pm.Bin, "npm")
	}
	if len(pm.Args) != 1 || pm.Args[0] != "install" {
		t.Errorf("Args = %v, want [install]", pm.Args)
	}

	pm = New("pnpm", []string{"install", "--frozen-lockfile"})
	if pm.Bin != "pnpm" || len(pm.Args) != 2 {
		t.Errorf("New(pnpm) = %+v", pm)
	}
}

func TestInstall_RunsInProjectDir(t *testing.T) {
	fakeManager(t, "fakepm", `pwd > marker; echo "args: $*"`)

	project := t.TempDir()
	var stdout bytes.Buffer
	pm := &PackageManager{Bin: "fakepm", Args: []string{"install", "--silent"}, Stdout: &stdout, Stderr: &stdout}

	result, err := pm.Install(context.Background(), project)
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if !result.Succeeded() {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if result.Dir != project {
		t.Errorf("Dir = %q, want %q", result.Dir, project)
	}
	if got := result.String(); got != "fakepm install --silent" {
		t.Errorf("String() = %q", got)
	}
	if !strings.Contains(stdout.String(), "args: install --silent") {
		t.Errorf("stdout = %q", stdout.String())
	}

	data, err := os.ReadFile(filepath.Join(project, "marker"))
	if err != nil {
		t.Fatalf("install did not run inside the project: %v", err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	want, _ := filepath.EvalSymlinks(project)
	if got != want {
		t.Errorf("working dir = %q, want %q", got, want)
	}
}

func TestInstall_NonZeroExitIsNotAnError(t *testing.T) {
	fakeManager(t, "fakepm", "echo boom >&2\nexit 3\n")

	var stderr bytes.Buffer
	pm := &PackageManager{Bin: "fakepm", Args: []string{"install"}, Stdout: &stderr, Stderr: &stderr}
	result, err := pm.Install(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if result.Succeeded() {
		t.Error("Succeeded() = true for exit 3")
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestInstall_KilledBySignal(t *testing.T) {
	fakeManager(t, "fakepm", "kill -9 $$\n")

	pm := &PackageManager{Bin: "fakepm", Args: []string{"install"}, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	result, err := pm.Install(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if result.ExitCode != 137 {
		t.Errorf("ExitCode = %d, want 137", result.ExitCode)
	}
	if result.Signal != "killed" {
		t.Errorf("Signal = %q, want %q", result.Signal, "killed")
	}
	if result.Succeeded() {
		t.Error("Succeeded() = true for a killed install")
	}
}

func TestInstall_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	pm := New("definitely-not-a-package-manager", nil)
	result, err := pm.Install(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing binary, got nil")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q", err)
	}
}

func TestInstall_Cancelled(t *testing.T) {
	fakeManager(t, "fakepm", "exit 0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pm := &PackageManager{Bin: "fakepm", Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	if _, err := pm.Install(ctx, t.TempDir()); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
