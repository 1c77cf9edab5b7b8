package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yawuxi/create-yawuxi-app/internal/branding"
	"github.com/yawuxi/create-yawuxi-app/internal/config"
	"github.com/yawuxi/create-yawuxi-app/internal/console"
	"github.com/yawuxi/create-yawuxi-app/internal/installer"
	"github.com/yawuxi/create-yawuxi-app/internal/logger"
	"github.com/yawuxi/create-yawuxi-app/internal/scaffold"
	"github.com/yawuxi/create-yawuxi-app/internal/templates"
)

// BuildInfo is injected via ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// ExitError carries a process exit status. Reported errors have already been
// shown to the user and are not printed again.
type ExitError struct {
	Code     int
	Err      error
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

// state is shared by the command tree of one invocation.
type state struct {
	build BuildInfo
	cfg   *config.Config
}

// Execute runs the command line. Cancelling ctx stops a running install.
func Execute(ctx context.Context, build BuildInfo) error {
	return Run(ctx, build, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes the command line args against the given streams. Errors not
// already shown to the user are printed to stderr.
func Run(ctx context.Context, build BuildInfo, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(&state{build: build})
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		console.New(stderr).Error("Error: " + err.Error())
	}
	return err
}

func newRootCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   branding.CLIName() + " <project-name>",
		Short: branding.Description(),
		Long: heredoc.Docf(`
			%s creates a new React + TypeScript + Webpack project in a new
			directory named after <project-name>, then installs its dependencies.

			The directory must not exist yet. Nothing is written when the name is
			missing or taken.

			Settings come from %s, %s_* environment variables and flags, in
			increasing order of precedence.

			Report issues at https://github.com/%s/issues.`,
			branding.CLIName(), config.FilePath(), branding.EnvPrefix(), branding.GitHubRepo()),
		Example: heredoc.Docf(`
			%[1]s my-app
			%[1]s my-app --package-manager pnpm
			%[1]s my-app --dry-run`, branding.CLIName()),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, st, args)
		},
	}

	flags := cmd.Flags()
	flags.Bool("skip-install", false, "Create the project without installing dependencies")
	flags.Bool("dry-run", false, "Print what would be created without writing anything")
	flags.String("package-manager", installer.DefaultBin, "Package manager used to install dependencies")
	flags.String("template", branding.DefaultTemplate(), "Template set to create the project from")
	cmd.PersistentFlags().String("log-level", "warn", "Diagnostic log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd(st), newDoctorCmd(st), newConfigCmd())
	return cmd
}

// load resolves configuration and sets up logging for the running command.
func (st *state) load(cmd *cobra.Command) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	cfg, err := config.Load(wd, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = level
	logCfg.Output = cmd.ErrOrStderr()
	logger.Init(logCfg)

	st.cfg = cfg
	return nil
}

func runCreate(cmd *cobra.Command, st *state, args []string) error {
	var name string
	if len(args) == 1 {
		name = args[0]
	}

	set, err := templates.Load(st.cfg.Template)
	if err != nil {
		if errors.Is(err, templates.ErrNotFound) {
			names, _ := templates.Names()
			return fmt.Errorf("%w (available: %s)", err, strings.Join(names, ", "))
		}
		return err
	}

	pm := installer.New(st.cfg.PackageManager, st.cfg.InstallArgs)
	pm.Stdin, pm.Stdout, pm.Stderr = cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()

	runner := &scaffold.Runner{
		Config:    st.cfg,
		Fs:        afero.NewOsFs(),
		Installer: pm,
		Templates: set,
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
		Logger:    logger.ForComponent("scaffold"),
	}

	report, err := runner.Run(cmd.Context(), name)
	if err != nil {
		if errors.Is(err, scaffold.ErrMissingName) || errors.Is(err, scaffold.ErrAlreadyExists) {
			return &ExitError{Code: 1, Err: err, Reported: true}
		}
		return err
	}
	if code := report.ExitCode(); code != 0 {
		return &ExitError{Code: code, Err: fmt.Errorf("dependency installation failed"), Reported: true}
	}
	return nil
}
