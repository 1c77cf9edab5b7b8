package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/yawuxi/create-yawuxi-app/internal/config"
	"github.com/yawuxi/create-yawuxi-app/internal/console"
	"github.com/yawuxi/create-yawuxi-app/internal/installer"
	"github.com/yawuxi/create-yawuxi-app/internal/templates"
)

// User-facing messages.
const (
	msgMissingName   = "Please enter correct folder name"
	msgAlreadyExists = "Project with that name already exists"
	msgSuccess       = "Successfully! Your new project is ready!"
)

// Runner drives one scaffold run end to end.
type Runner struct {
	Config    *config.Config
	Fs        afero.Fs
	Installer installer.Installer // unused when Config.SkipInstall is set
	Templates *templates.Set
	Out       io.Writer
	Err       io.Writer
	Logger    *slog.Logger
}

// Report summarises a run.
type Report struct {
	Request     *ProjectRequest
	Plan        *Plan
	DryRun      bool
	Directories int
	Files       int
	Bytes       int64
	Install     *installer.Result
	InstallErr  error
}

// ExitCode is the process exit status for a run that produced this report:
// the installer's exit code when the install failed, 1 when it could not be
// started or reported no usable status, 0 otherwise.
func (r *Report) ExitCode() int {
	switch {
	case r.InstallErr != nil:
		return 1
	case r.Install != nil && r.Install.ExitCode > 0:
		return r.Install.ExitCode
	case r.Install != nil && r.Install.ExitCode < 0:
		return 1
	default:
		return 0
	}
}

// Run creates the project called name. Validation and plan errors are
// returned before anything is written; an *IOError aborts with the partial
// tree left in place. A failed install still returns a report and a nil
// error; check Report.ExitCode.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	out := console.New(r.writer(r.Out, os.Stdout))
	errOut := console.New(r.writer(r.Err, os.Stderr))
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}

	req, err := Validate(name, r.Config.WorkDir, ExistsIn(r.Fs))
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingName):
			errOut.Error(msgMissingName)
		case errors.Is(err, ErrAlreadyExists):
			errOut.Error(msgAlreadyExists)
		}
		return nil, err
	}
	log.Info("validated project", "name", req.Name, "path", req.Path)

	plan, err := BuildPlan(req, r.Templates)
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", req.Name, err)
	}
	log.Info("built plan", "template", plan.Template, "version", plan.Version,
		"directories", len(plan.Directories), "files", len(plan.Files))

	report := &Report{Request: req, Plan: plan, DryRun: r.Config.DryRun}
	if r.Config.DryRun {
		printPlan(out, plan)
		return report, nil
	}

	stats, err := Materialize(r.Fs, plan.Directories, plan.Files)
	report.Directories, report.Files, report.Bytes = stats.Directories, stats.Files, stats.Bytes
	if err != nil {
		return report, fmt.Errorf("creating %s: %w", req.Name, err)
	}
	log.Info("materialized project", "directories", stats.Directories, "files", stats.Files, "bytes", stats.Bytes)

	if !r.Config.SkipInstall {
		report.Install, report.InstallErr = r.install(ctx, req.Path)
		if report.InstallErr != nil {
			log.Warn("install could not run", "error", report.InstallErr)
		} else {
			log.Info("install finished", "command", report.Install.String(),
				"exit_code", report.Install.ExitCode, "duration", report.Install.Duration)
		}
	}

	r.printSummary(out, report)
	return report, nil
}

func (r *Runner) install(ctx context.Context, dir string) (*installer.Result, error) {
	if r.Installer == nil {
		return nil, errors.New("no package manager configured")
	}
	return r.Installer.Install(ctx, dir)
}

func (r *Runner) writer(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

func (r *Runner) packageManager() string {
	if r.Config.PackageManager != "" {
		return r.Config.PackageManager
	}
	return installer.DefaultBin
}

func (r *Runner) printSummary(out *console.Printer, report *Report) {
	req := report.Request
	pm := r.packageManager()

	out.Println(out.Dim(fmt.Sprintf("Wrote %d files in %d directories (%s)",
		report.Files, report.Directories, humanize.Bytes(uint64(report.Bytes)))))
	out.Success(msgSuccess)
	out.Println("Created", out.Name(req.Name), "at", out.Name(req.Path))

	switch {
	case report.InstallErr != nil:
		out.Warn(fmt.Sprintf("Dependencies were not installed: %v", report.InstallErr))
	case report.Install != nil && report.Install.Signal != "":
		out.Warn(fmt.Sprintf("Dependency installation failed (%s stopped by signal: %s)",
			report.Install, report.Install.Signal))
	case report.Install != nil && !report.Install.Succeeded():
		out.Warn(fmt.Sprintf("Dependency installation failed (%s exited with %d)",
			report.Install, report.Install.ExitCode))
	}

	if report.Install == nil || !report.Install.Succeeded() {
		out.Println("Enter -", out.Command("cd "+req.Name)+",", "then -", out.Command(pm+" install")+",",
			"after -", out.Command(pm+" start"))
		return
	}
	out.Println("Enter -", out.Command("cd "+req.Name)+",", "after -", out.Command(pm+" start"))
}

func printPlan(out *console.Printer, plan *Plan) {
	root := plan.Request.Path
	out.Println("Would create", out.Name(root), out.Dim(fmt.Sprintf("from %s %s", plan.Template, plan.Version)))
	for _, dir := range plan.Directories[1:] {
		out.Println("  " + relTo(root, dir) + "/")
	}
	var total int64
	for _, f := range plan.Files {
		total += int64(len(f.Content))
		out.Println("  "+relTo(root, f.Path), out.Dim(humanize.Bytes(uint64(len(f.Content)))))
	}
	out.Println(out.Dim(fmt.Sprintf("%d directories, %d files, %s", len(plan.Directories), len(plan.Files), humanize.Bytes(uint64(total)))))
}

func relTo(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}
