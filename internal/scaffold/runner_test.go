package scaffold

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yawuxi/create-yawuxi-app/internal/config"
	"github.com/yawuxi/create-yawuxi-app/internal/installer"
)

type fakeInstaller struct {
	dirs     []string
	exitCode int
	err      error
}

func (f *fakeInstaller) Install(_ context.Context, dir string) (*installer.Result, error) {
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return nil, f.err
	}
	return &installer.Result{Command: "npm", Args: []string{"install"}, Dir: dir, ExitCode: f.exitCode}, nil
}

type runnerFixture struct {
	runner    *Runner
	fs        afero.Fs
	installer *fakeInstaller
	out       *bytes.Buffer
	errOut    *bytes.Buffer
}

func newRunner(t *testing.T, cfg config.Config) *runnerFixture {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = "/work"
	}
	f := &runnerFixture{
		fs:        afero.NewMemMapFs(),
		installer: &fakeInstaller{},
		out:       &bytes.Buffer{},
		errOut:    &bytes.Buffer{},
	}
	f.runner = &Runner{
		Config:    &cfg,
		Fs:        f.fs,
		Installer: f.installer,
		Templates: embeddedSet(t),
		Out:       f.out,
		Err:       f.errOut,
	}
	return f
}

func TestRun_CreatesProjectAndInstalls(t *testing.T) {
	f := newRunner(t, config.Config{PackageManager: "npm"})

	report, err := f.runner.Run(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, "/work/demo", report.Request.Path)
	assert.Equal(t, 9, report.Directories)
	assert.Equal(t, 24, report.Files)
	assert.Positive(t, report.Bytes)
	assert.Equal(t, 0, report.ExitCode())
	assert.Equal(t, []string{"/work/demo"}, f.installer.dirs, "install must run inside the new project")

	for _, p := range []string{
		"/work/demo/package.json",
		"/work/demo/webpack.config.js",
		"/work/demo/src/index.tsx",
		"/work/demo/src/pages/.gitkeep",
		"/work/demo/src/scss/css-reset.scss",
	} {
		ok, err := afero.Exists(f.fs, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}

	out := f.out.String()
	assert.Contains(t, out, "Successfully! Your new project is ready!")
	assert.Contains(t, out, "Created demo at /work/demo")
	assert.Contains(t, out, "Enter - cd demo, after - npm start")
	assert.NotContains(t, out, "failed")
	assert.Empty(t, f.errOut.String())
}

func TestRun_MissingName(t *testing.T) {
	f := newRunner(t, config.Config{})

	report, err := f.runner.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingName)
	assert.Nil(t, report)
	assert.Contains(t, f.errOut.String(), "Please enter correct folder name")
	assert.Empty(t, f.installer.dirs)

	ok, _ := afero.Exists(f.fs, "/work")
	assert.False(t, ok, "nothing may be created")
}

func TestRun_AlreadyExists(t *testing.T) {
	f := newRunner(t, config.Config{})
	require.NoError(t, f.fs.MkdirAll("/work/demo", 0o755))
	require.NoError(t, afero.WriteFile(f.fs, "/work/demo/keep.txt", []byte("mine"), 0o644))

	_, err := f.runner.Run(context.Background(), "demo")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Contains(t, f.errOut.String(), "Project with that name already exists")
	assert.Empty(t, f.installer.dirs)

	entries, err := afero.ReadDir(f.fs, "/work/demo")
	require.NoError(t, err)
	require.Len(t, entries, 1, "existing directory must be left untouched")
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	f := newRunner(t, config.Config{DryRun: true})

	report, err := f.runner.Run(context.Background(), "demo")
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	require.NotNil(t, report.Plan)
	assert.Len(t, report.Plan.Files, 24)
	assert.Empty(t, f.installer.dirs)

	ok, _ := afero.Exists(f.fs, "/work/demo")
	assert.False(t, ok)

	out := f.out.String()
	assert.Contains(t, out, "Would create /work/demo")
	assert.Contains(t, out, "src/app/")
	assert.Contains(t, out, "webpack.config.js")
	assert.NotContains(t, out, "Successfully!")
}

func TestRun_SkipInstall(t *testing.T) {
	f := newRunner(t, config.Config{SkipInstall: true, PackageManager: "yarn"})

	report, err := f.runner.Run(context.Background(), "demo")
	require.NoError(t, err)
	assert.Nil(t, report.Install)
	assert.Empty(t, f.installer.dirs)
	assert.Equal(t, 0, report.ExitCode())
	assert.Contains(t, f.out.String(), "then - yarn install, after - yarn start")
}

func TestRun_InstallFailureKeepsSuccessAndExitCode(t *testing.T) {
	f := newRunner(t, config.Config{PackageManager: "npm"})
	f.installer.exitCode = 2

	report, err := f.runner.Run(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, report.ExitCode())

	out := f.out.String()
	assert.Contains(t, out, "Successfully! Your new project is ready!")
	assert.Contains(t, out, "Dependency installation failed (npm install exited with 2)")
}

func TestRun_InstallerCouldNotStart(t *testing.T) {
	f := newRunner(t, config.Config{PackageManager: "npm"})
	f.installer.err = errors.New(`package manager "npm" not found`)

	report, err := f.runner.Run(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExitCode())
	assert.Contains(t, f.out.String(), "Dependencies were not installed")
}

func TestRun_IOErrorAborts(t *testing.T) {
	f := newRunner(t, config.Config{})
	f.runner.Fs = afero.NewReadOnlyFs(afero.NewMemMapFs())

	report, err := f.runner.Run(context.Background(), "demo")
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Files)
	assert.Empty(t, f.installer.dirs)
	assert.NotContains(t, f.out.String(), "Successfully!")
}

func TestReport_ExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   int
	}{
		{"skipped", Report{}, 0},
		{"ok", Report{Install: &installer.Result{}}, 0},
		{"failed", Report{Install: &installer.Result{ExitCode: 7}}, 7},
		{"not started", Report{InstallErr: errors.New("x")}, 1},
		{"killed", Report{Install: &installer.Result{ExitCode: 137, Signal: "killed"}}, 137},
		{"no status", Report{Install: &installer.Result{ExitCode: -1}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.report.ExitCode())
		})
	}
}
