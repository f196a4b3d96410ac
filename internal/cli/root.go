// Package cli implements the strata command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/logging"
	"github.com/mesh-intelligence/strata/internal/paths"
	"github.com/mesh-intelligence/strata/pkg/strata"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks command-line mistakes.
var errUsage = errors.New("usage error")

// userErrors are the failures caused by the input data or the invocation
// rather than the system.
var userErrors = []error{
	errUsage,
	types.ErrSchema,
	types.ErrType,
	types.ErrConformance,
	types.ErrValidationFailed,
	types.ErrDataDirEmpty,
	types.ErrWorkersInvalid,
	types.ErrLogLevelUnknown,
}

// ExitCode maps a command error to the process exit status: 0 on success,
// 1 for data and usage errors, 2 for system errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	pretty    bool
	jsonMode  bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	config    *viper.Viper
	logger    *zap.Logger
}

// pipelineConfig resolves the run configuration with flag overrides applied.
func (a *app) pipelineConfig() (types.Config, error) {
	return pipelineConfig(a.config, a.flags.dataDir)
}

// NewRootCmd creates the top-level "strata" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:     "strata",
		Short:   "Bronze to silver to gold batch pipeline",
		Long:    "strata conforms raw CSV extracts into typed silver tables, builds the gold\nfact and aggregate tables, validates them and publishes them to a SQLite catalog.",
		Version: strata.Version,
		// Errors are printed once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: ./.strata or the user config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: ./data)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.flags.pretty, "pretty", false, "human-readable console logs")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newGenerateCmd())
	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newValidateCmd())
	root.AddCommand(a.newTablesCmd())
	return root
}

// setup loads .env and config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := loadDotEnv(); err != nil {
		return err
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		v.Set(cfgKeyLogLevel, a.flags.logLevel)
	}
	if f := flags.Lookup("pretty"); f != nil && f.Changed {
		v.Set(cfgKeyPrettyLogs, a.flags.pretty)
	}
	a.configDir = configDir
	a.config = v

	logger, err := logging.New(v.GetString(cfgKeyLogLevel), v.GetBool(cfgKeyPrettyLogs))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrLogLevelUnknown, err)
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "strata:", err)
	}
	return ExitCode(err)
}
